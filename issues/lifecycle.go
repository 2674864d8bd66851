package issues

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/models"
)

// Messages returned for lifecycle failures
const (
	msgNotOwner         = "Not authorized"
	msgNotAdmin         = "Not authorized as an admin"
	msgResolvedNoDelete = "Resolved issues are auto-deleted after 24 hours"
	msgFeedbackPending  = "Can only rate resolved issues"
)

// LocationInput is the location submitted with a new issue. Lat and Lng
// are pointers so a missing coordinate can be told apart from zero.
type LocationInput struct {
	Lat     *float64 `json:"lat" validate:"required"`
	Lng     *float64 `json:"lng" validate:"required"`
	Address string   `json:"address"`
}

// CreateInput is what a citizen submits to report an issue
type CreateInput struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Category    models.Category `json:"category" validate:"required"`
	ImageURL    string          `json:"imageUrl"`
	Location    *LocationInput  `json:"location" validate:"required"`
}

// StatusInput is an admin's status change
type StatusInput struct {
	Status                models.Status `json:"status" validate:"required"`
	ResolutionEvidenceURL string        `json:"resolutionEvidenceUrl"`
}

// FeedbackInput is a reporter's rating of a resolved issue
type FeedbackInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create stores a new Pending issue reported by caller
func (m *Manager) Create(ctx context.Context, caller Caller, in CreateInput) (*models.Issue, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	switch {
	case title == "":
		return nil, apperrors.NewValidation("title is required")
	case description == "":
		return nil, apperrors.NewValidation("description is required")
	case !in.Category.Valid():
		return nil, apperrors.NewValidation(fmt.Sprintf("category must be one of %s", categoryList()))
	case in.Location == nil || in.Location.Lat == nil || in.Location.Lng == nil:
		return nil, apperrors.NewValidation("location lat and lng are required")
	}

	now := m.now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		ReporterID:  caller.ID,
		Title:       title,
		Description: description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Location: models.Location{
			Lat:     *in.Location.Lat,
			Lng:     *in.Location.Lng,
			Address: strings.TrimSpace(in.Location.Address),
		},
		Status:     models.StatusPending,
		Priority:   models.PriorityMedium,
		AssignedTo: models.DefaultAssignee,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := m.Issues.InsertOne(ctx, issue); err != nil {
		return nil, apperrors.NewInfrastructure("Failed to create issue", err)
	}
	return &issue, nil
}

// SetStatus moves an issue to status. resolvedAt is stamped the first time
// the issue becomes Resolved and never moved afterwards. Evidence, when
// given, is stored whatever the new status.
func (m *Manager) SetStatus(ctx context.Context, caller Caller, id primitive.ObjectID, in StatusInput) (*models.Issue, error) {
	if !caller.IsAdmin() {
		return nil, apperrors.NewAuthorization(msgNotAdmin)
	}
	if !in.Status.Valid() {
		return nil, apperrors.NewValidation("status must be one of Pending, In Progress, Resolved, Rejected")
	}

	now := m.now()
	filter := bson.M{"_id": id}
	if from := m.Policy.Sources(in.Status); from != nil {
		filter["status"] = bson.M{"$in": from}
	}

	set := bson.D{
		{Key: "status", Value: bson.M{"$literal": in.Status}},
		{Key: "updatedAt", Value: now},
	}
	if in.Status == models.StatusResolved {
		set = append(set, bson.E{Key: "resolvedAt", Value: bson.M{"$ifNull": bson.A{"$resolvedAt", now}}})
	}
	if in.ResolutionEvidenceURL != "" {
		set = append(set, bson.E{Key: "resolutionEvidenceUrl", Value: bson.M{"$literal": in.ResolutionEvidenceURL}})
	}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}

	issue, err := m.Issues.FindOneAndUpdate(ctx, filter, update)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, lerr := m.load(ctx, id)
		if lerr != nil {
			return nil, lerr
		}
		return nil, apperrors.NewConflict(fmt.Sprintf("cannot move issue from %s to %s", current.Status, in.Status))
	}
	if err != nil {
		return nil, apperrors.NewInfrastructure("Update failed", err)
	}

	m.notify(ctx, *issue)
	return issue, nil
}

// Delete removes an issue on behalf of its reporter. Resolved issues are
// left for the cleanup sweep.
func (m *Manager) Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	issue, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if issue.ReporterID != caller.ID {
		return apperrors.NewAuthorization(msgNotOwner)
	}
	if issue.Status == models.StatusResolved {
		return apperrors.NewConflict(msgResolvedNoDelete)
	}

	deleted, err := m.Issues.DeleteOne(ctx, bson.M{
		"_id":    id,
		"user":   caller.ID,
		"status": bson.M{"$ne": models.StatusResolved},
	})
	if err != nil {
		return apperrors.NewInfrastructure("failed to delete issue", err)
	}
	if deleted == 0 {
		// resolved or removed since it was read
		if _, err := m.load(ctx, id); err != nil {
			return err
		}
		return apperrors.NewConflict(msgResolvedNoDelete)
	}
	return nil
}

// SetFeedback replaces the reporter's rating of a resolved issue
func (m *Manager) SetFeedback(ctx context.Context, caller Caller, id primitive.ObjectID, in FeedbackInput) (*models.Issue, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.NewValidation("rating must be between 1 and 5")
	}

	issue, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.ReporterID != caller.ID {
		return nil, apperrors.NewAuthorization(msgNotOwner)
	}
	if issue.Status != models.StatusResolved {
		return nil, apperrors.NewConflict(msgFeedbackPending)
	}

	feedback := models.Feedback{Rating: in.Rating, Comment: strings.TrimSpace(in.Comment)}
	updated, err := m.Issues.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": caller.ID, "status": models.StatusResolved},
		bson.M{"$set": bson.M{"feedback": feedback, "updatedAt": m.now()}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, err := m.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.NewConflict(msgFeedbackPending)
	}
	if err != nil {
		return nil, apperrors.NewInfrastructure("Failed to submit feedback", err)
	}
	return updated, nil
}

func categoryList() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
