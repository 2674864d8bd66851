package issues

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/models"
)

// Shape builds the representation of issue returned to a caller with the
// given role. Admins see the reporter's name, email and phone, everyone
// else only the name. reporter may be nil when the account no longer
// exists.
func Shape(issue models.Issue, reporter *models.User, role models.Role) models.IssueView {
	rv := models.ReporterView{ID: issue.ReporterID}
	if reporter != nil {
		rv.Name = reporter.Name
		if role == models.RoleAdmin {
			rv.Email = reporter.Email
			rv.Phone = reporter.Phone
		}
	}
	return models.IssueView{
		ID:                    issue.ID,
		Reporter:              rv,
		Title:                 issue.Title,
		Description:           issue.Description,
		Category:              issue.Category,
		ImageURL:              issue.ImageURL,
		Location:              issue.Location,
		Status:                issue.Status,
		Priority:              issue.Priority,
		AssignedTo:            issue.AssignedTo,
		ResolutionEvidenceURL: issue.ResolutionEvidenceURL,
		ResolvedAt:            issue.ResolvedAt,
		Feedback:              issue.Feedback,
		CreatedAt:             issue.CreatedAt,
		UpdatedAt:             issue.UpdatedAt,
	}
}

// View loads the reporters of issues in one query and shapes each issue
// for role, keeping the input order.
func (m *Manager) View(ctx context.Context, role models.Role, issues ...models.Issue) ([]models.IssueView, error) {
	views := make([]models.IssueView, 0, len(issues))
	if len(issues) == 0 {
		return views, nil
	}

	seen := make(map[primitive.ObjectID]bool, len(issues))
	ids := make([]primitive.ObjectID, 0, len(issues))
	for _, issue := range issues {
		if !seen[issue.ReporterID] {
			seen[issue.ReporterID] = true
			ids = append(ids, issue.ReporterID)
		}
	}

	users, err := m.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.NewInfrastructure("failed to load reporters", err)
	}
	reporters := make(map[primitive.ObjectID]*models.User, len(users))
	for i := range users {
		reporters[users[i].ID] = &users[i]
	}

	for _, issue := range issues {
		views = append(views, Shape(issue, reporters[issue.ReporterID], role))
	}
	return views, nil
}

// ViewOne shapes a single issue for role
func (m *Manager) ViewOne(ctx context.Context, role models.Role, issue models.Issue) (*models.IssueView, error) {
	views, err := m.View(ctx, role, issue)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
