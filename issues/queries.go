package issues

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/models"
)

// PageSize is the number of issues in one page of List
const PageSize = 10

// ListQuery filters the issue list. Empty fields do not filter.
type ListQuery struct {
	Status   models.Status
	Category models.Category
	Page     int
}

// ListResult is one page of issues, newest first
type ListResult struct {
	Issues []models.Issue
	Page   int
	Pages  int
}

// Get returns a single issue
func (m *Manager) Get(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	return m.load(ctx, id)
}

// List returns one page of issues matching q
func (m *Manager) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	filter := bson.M{}
	if q.Status != "" {
		if !q.Status.Valid() {
			return nil, apperrors.NewValidation("unknown status filter")
		}
		filter["status"] = q.Status
	}
	if q.Category != "" {
		if !q.Category.Valid() {
			return nil, apperrors.NewValidation("unknown category filter")
		}
		filter["category"] = q.Category
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	count, err := m.Issues.CountDocuments(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInfrastructure("Server Error", err)
	}
	issues, err := m.Issues.Find(ctx, filter, databases.NewestFirstPage(PageSize, page))
	if err != nil {
		return nil, apperrors.NewInfrastructure("Server Error", err)
	}
	if issues == nil {
		issues = []models.Issue{}
	}

	return &ListResult{
		Issues: issues,
		Page:   page,
		Pages:  int((count + PageSize - 1) / PageSize),
	}, nil
}

// ListByReporter returns every issue filed by reporterID, newest first
func (m *Manager) ListByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	issues, err := m.Issues.Find(ctx, bson.M{"user": reporterID}, databases.NewestFirst())
	if err != nil {
		return nil, apperrors.NewInfrastructure("Error fetching my issues", err)
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	return issues, nil
}
