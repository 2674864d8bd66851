package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/api/handlers"
	"github.com/fixitnow/fixitnow-api/api/testhelpers"
	"github.com/fixitnow/fixitnow-api/databases/mocks"
	"github.com/fixitnow/fixitnow-api/issues"
	"github.com/fixitnow/fixitnow-api/models"
	"github.com/fixitnow/fixitnow-api/notify"
)

func newIssueHandler(t *testing.T) (handlers.Issue, *mocks.IssueDatabase, *mocks.UserDatabase) {
	idb := mocks.NewIssueDatabase(t)
	udb := mocks.NewUserDatabase(t)
	m := issues.NewManager(idb, udb, issues.OpenTransitions, notify.LogNotifier{})
	m.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return handlers.Issue{Manager: m}, idb, udb
}

func reporterOf(p api.Principal) models.User {
	return models.User{ID: p.ID, Name: "Meera", Email: "meera@example.com", Phone: "9876543210", Role: p.Role}
}

func issueBy(reporter primitive.ObjectID, status models.Status) *models.Issue {
	return &models.Issue{
		ID:         primitive.NewObjectID(),
		ReporterID: reporter,
		Title:      "Broken street light",
		Category:   models.CategoryStreetLight,
		Status:     status,
		Priority:   models.PriorityMedium,
		AssignedTo: models.DefaultAssignee,
	}
}

func vars(id primitive.ObjectID) map[string]string {
	return map[string]string{"issue_id": id.Hex()}
}

func TestCreateIssueHandler(t *testing.T) {
	h, idb, udb := newIssueHandler(t)
	citizen := testhelpers.Citizen()

	idb.On("InsertOne", mock.Anything, mock.MatchedBy(func(i models.Issue) bool {
		return i.ReporterID == citizen.ID && i.Title == "Garbage pile" && i.Status == models.StatusPending
	})).Return(nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{reporterOf(citizen)}, nil)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPost, "/api/issues", map[string]interface{}{
		"title":       " Garbage pile ",
		"description": "Not collected for a week",
		"category":    "Garbage",
		"location":    map[string]interface{}{"lat": 12.97, "lng": 77.59},
	}), citizen, nil)
	rr := testhelpers.Serve(h.CreateIssueHandler, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var view models.IssueView
	require.NoError(t, testhelpers.DecodeBody(rr, &view))
	assert.Equal(t, "Garbage pile", view.Title)
	assert.Equal(t, models.StatusPending, view.Status)
	assert.Equal(t, "Meera", view.Reporter.Name)
	assert.Empty(t, view.Reporter.Email)
	assert.Empty(t, view.Reporter.Phone)
}

func TestCreateIssueHandler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"missing location", map[string]interface{}{"title": "t", "description": "d", "category": "Pothole"}, "location is required"},
		{"missing lng", map[string]interface{}{"title": "t", "description": "d", "category": "Pothole", "location": map[string]interface{}{"lat": 1}}, "lng is required"},
		{"blank title", map[string]interface{}{"title": "   ", "description": "d", "category": "Pothole", "location": map[string]interface{}{"lat": 1, "lng": 2}}, "title is required"},
		{"unknown category", map[string]interface{}{"title": "t", "description": "d", "category": "Graffiti", "location": map[string]interface{}{"lat": 1, "lng": 2}}, "category must be one of"},
		{"malformed", `{"title":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newIssueHandler(t)
			req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPost, "/api/issues", tt.body), testhelpers.Citizen(), nil)

			rr := testhelpers.Serve(h.CreateIssueHandler, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.message)
		})
	}
}

func TestCreateIssueHandler_Unauthenticated(t *testing.T) {
	h, _, _ := newIssueHandler(t)

	rr := testhelpers.Serve(h.CreateIssueHandler, testhelpers.NewRequest(http.MethodPost, "/api/issues", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestIssuesHandler_AdminSeesContactDetails(t *testing.T) {
	h, idb, udb := newIssueHandler(t)
	admin := testhelpers.Admin()
	reporter := testhelpers.Citizen()
	issue := issueBy(reporter.ID, models.StatusPending)

	idb.On("CountDocuments", mock.Anything, bson.M{"status": models.StatusPending}).Return(int64(12), nil)
	idb.On("Find", mock.Anything, bson.M{"status": models.StatusPending}, mock.Anything).Return([]models.Issue{*issue}, nil)
	udb.On("Find", mock.Anything, bson.M{"_id": bson.M{"$in": []primitive.ObjectID{reporter.ID}}}).
		Return([]models.User{reporterOf(reporter)}, nil)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues?status=Pending&pageNumber=2", nil), admin, nil)
	rr := testhelpers.Serve(h.IssuesHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var page models.IssueListResponse
	require.NoError(t, testhelpers.DecodeBody(rr, &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Issues, 1)
	assert.Equal(t, "meera@example.com", page.Issues[0].Reporter.Email)
	assert.Equal(t, "9876543210", page.Issues[0].Reporter.Phone)
}

func TestIssuesHandler_BadPageFallsBackToFirst(t *testing.T) {
	h, idb, _ := newIssueHandler(t)

	idb.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(0), nil)
	idb.On("Find", mock.Anything, bson.M{}, mock.Anything).Return(nil, nil)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues?pageNumber=abc", nil), testhelpers.Citizen(), nil)
	rr := testhelpers.Serve(h.IssuesHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"issues":[],"page":1,"pages":0}`, rr.Body.String())
}

func TestIssuesHandler_InvalidFilter(t *testing.T) {
	h, _, _ := newIssueHandler(t)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues?status=Closed", nil), testhelpers.Citizen(), nil)
	rr := testhelpers.Serve(h.IssuesHandler, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIssuesHandler_StoreFailure(t *testing.T) {
	h, idb, _ := newIssueHandler(t)
	idb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection reset by peer"))

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues", nil), testhelpers.Citizen(), nil)
	rr := testhelpers.Serve(h.IssuesHandler, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Server Error"}`, rr.Body.String())
}

func TestMyIssuesHandler(t *testing.T) {
	h, idb, udb := newIssueHandler(t)
	citizen := testhelpers.Citizen()
	newer := issueBy(citizen.ID, models.StatusPending)
	older := issueBy(citizen.ID, models.StatusRejected)

	idb.On("Find", mock.Anything, bson.M{"user": citizen.ID}, mock.Anything).Return([]models.Issue{*newer, *older}, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{reporterOf(citizen)}, nil)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues/my", nil), citizen, nil)
	rr := testhelpers.Serve(h.MyIssuesHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var views []models.IssueView
	require.NoError(t, testhelpers.DecodeBody(rr, &views))
	require.Len(t, views, 2)
	assert.Equal(t, newer.ID, views[0].ID)
	assert.Equal(t, older.ID, views[1].ID)
}

func TestMyIssuesHandler_Empty(t *testing.T) {
	h, idb, _ := newIssueHandler(t)
	citizen := testhelpers.Citizen()
	idb.On("Find", mock.Anything, bson.M{"user": citizen.ID}, mock.Anything).Return(nil, nil)

	rr := testhelpers.Serve(h.MyIssuesHandler, testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues/my", nil), citizen, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestIssueByIDHandler(t *testing.T) {
	h, idb, udb := newIssueHandler(t)
	reporter := testhelpers.Citizen()
	issue := issueBy(reporter.ID, models.StatusInProgress)

	idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{reporterOf(reporter)}, nil)

	t.Run("reporter sees name only", func(t *testing.T) {
		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues/"+issue.ID.Hex(), nil), reporter, vars(issue.ID))
		rr := testhelpers.Serve(h.IssueByIDHandler, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var view models.IssueView
		require.NoError(t, testhelpers.DecodeBody(rr, &view))
		assert.Equal(t, "Meera", view.Reporter.Name)
		assert.Empty(t, view.Reporter.Email)
	})

	t.Run("admin sees contact details", func(t *testing.T) {
		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues/"+issue.ID.Hex(), nil), testhelpers.Admin(), vars(issue.ID))
		rr := testhelpers.Serve(h.IssueByIDHandler, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var view models.IssueView
		require.NoError(t, testhelpers.DecodeBody(rr, &view))
		assert.Equal(t, "Meera", view.Reporter.Name)
		assert.Equal(t, "meera@example.com", view.Reporter.Email)
	})
}

func TestIssueByIDHandler_NotFound(t *testing.T) {
	h, idb, _ := newIssueHandler(t)
	id := primitive.NewObjectID()
	idb.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(nil, mongo.ErrNoDocuments)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues/"+id.Hex(), nil), testhelpers.Citizen(), vars(id))
	rr := testhelpers.Serve(h.IssueByIDHandler, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"Issue not found"}`, rr.Body.String())
}

func TestIssueByIDHandler_InvalidID(t *testing.T) {
	h, _, _ := newIssueHandler(t)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodGet, "/api/issues/nope", nil), testhelpers.Citizen(), map[string]string{"issue_id": "nope"})
	rr := testhelpers.Serve(h.IssueByIDHandler, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateIssueStatusHandler(t *testing.T) {
	h, idb, udb := newIssueHandler(t)
	admin := testhelpers.Admin()
	reporter := testhelpers.Citizen()
	resolvedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issue := issueBy(reporter.ID, models.StatusResolved)
	issue.ResolvedAt = &resolvedAt
	issue.ResolutionEvidenceURL = "https://img.example/fixed.jpg"

	idb.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": issue.ID}, mock.Anything).Return(issue, nil)
	user := reporterOf(reporter)
	udb.On("FindOne", mock.Anything, bson.M{"_id": reporter.ID}).Return(&user, nil)
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{user}, nil)

	req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/api/issues/"+issue.ID.Hex()+"/status", map[string]string{
		"status":                "Resolved",
		"resolutionEvidenceUrl": "https://img.example/fixed.jpg",
	}), admin, vars(issue.ID))
	rr := testhelpers.Serve(h.UpdateIssueStatusHandler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var view models.IssueView
	require.NoError(t, testhelpers.DecodeBody(rr, &view))
	assert.Equal(t, models.StatusResolved, view.Status)
	require.NotNil(t, view.ResolvedAt)
	assert.True(t, resolvedAt.Equal(*view.ResolvedAt))
	assert.Equal(t, "https://img.example/fixed.jpg", view.ResolutionEvidenceURL)
	assert.Equal(t, "meera@example.com", view.Reporter.Email)
}

func TestUpdateIssueStatusHandler_Errors(t *testing.T) {
	id := primitive.NewObjectID()

	t.Run("citizen", func(t *testing.T) {
		h, _, _ := newIssueHandler(t)
		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]string{"status": "Resolved"}), testhelpers.Citizen(), vars(id))

		rr := testhelpers.Serve(h.UpdateIssueStatusHandler, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		h, _, _ := newIssueHandler(t)
		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]string{"status": "Closed"}), testhelpers.Admin(), vars(id))

		rr := testhelpers.Serve(h.UpdateIssueStatusHandler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing status", func(t *testing.T) {
		h, _, _ := newIssueHandler(t)
		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]string{}), testhelpers.Admin(), vars(id))

		rr := testhelpers.Serve(h.UpdateIssueStatusHandler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "status is required")
	})

	t.Run("missing issue", func(t *testing.T) {
		h, idb, _ := newIssueHandler(t)
		idb.On("FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
		idb.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(nil, mongo.ErrNoDocuments)
		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]string{"status": "In Progress"}), testhelpers.Admin(), vars(id))

		rr := testhelpers.Serve(h.UpdateIssueStatusHandler, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestIssueFeedbackHandler(t *testing.T) {
	reporter := testhelpers.Citizen()

	t.Run("rates a resolved issue", func(t *testing.T) {
		h, idb, udb := newIssueHandler(t)
		issue := issueBy(reporter.ID, models.StatusResolved)
		rated := *issue
		rated.Feedback = &models.Feedback{Rating: 4, Comment: "Quick fix"}
		idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)
		idb.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": issue.ID, "user": reporter.ID, "status": models.StatusResolved}, mock.Anything).
			Return(&rated, nil)
		udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{reporterOf(reporter)}, nil)

		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]interface{}{"rating": 4, "comment": "Quick fix"}), reporter, vars(issue.ID))
		rr := testhelpers.Serve(h.IssueFeedbackHandler, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var view models.IssueView
		require.NoError(t, testhelpers.DecodeBody(rr, &view))
		require.NotNil(t, view.Feedback)
		assert.Equal(t, 4, view.Feedback.Rating)
	})

	t.Run("pending issue", func(t *testing.T) {
		h, idb, _ := newIssueHandler(t)
		issue := issueBy(reporter.ID, models.StatusPending)
		idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)

		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]interface{}{"rating": 5}), reporter, vars(issue.ID))
		rr := testhelpers.Serve(h.IssueFeedbackHandler, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.JSONEq(t, `{"message":"Can only rate resolved issues"}`, rr.Body.String())
	})

	t.Run("not the reporter", func(t *testing.T) {
		h, idb, _ := newIssueHandler(t)
		issue := issueBy(reporter.ID, models.StatusResolved)
		idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)

		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]interface{}{"rating": 5}), testhelpers.Citizen(), vars(issue.ID))
		rr := testhelpers.Serve(h.IssueFeedbackHandler, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rating out of range", func(t *testing.T) {
		h, _, _ := newIssueHandler(t)

		req := testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPut, "/", map[string]interface{}{"rating": 6}), reporter, vars(primitive.NewObjectID()))
		rr := testhelpers.Serve(h.IssueFeedbackHandler, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteIssueHandler(t *testing.T) {
	reporter := testhelpers.Citizen()

	t.Run("reporter deletes a pending issue", func(t *testing.T) {
		h, idb, _ := newIssueHandler(t)
		issue := issueBy(reporter.ID, models.StatusPending)
		idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)
		idb.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)

		rr := testhelpers.Serve(h.DeleteIssueHandler, testhelpers.AsCaller(testhelpers.NewRequest(http.MethodDelete, "/", nil), reporter, vars(issue.ID)))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"message":"Complaint deleted successfully"}`, rr.Body.String())
	})

	t.Run("resolved issue", func(t *testing.T) {
		h, idb, _ := newIssueHandler(t)
		issue := issueBy(reporter.ID, models.StatusResolved)
		idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)

		rr := testhelpers.Serve(h.DeleteIssueHandler, testhelpers.AsCaller(testhelpers.NewRequest(http.MethodDelete, "/", nil), reporter, vars(issue.ID)))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.JSONEq(t, `{"message":"Resolved issues are auto-deleted after 24 hours"}`, rr.Body.String())
	})

	t.Run("someone else's issue", func(t *testing.T) {
		h, idb, _ := newIssueHandler(t)
		issue := issueBy(reporter.ID, models.StatusPending)
		idb.On("FindOne", mock.Anything, bson.M{"_id": issue.ID}).Return(issue, nil)

		rr := testhelpers.Serve(h.DeleteIssueHandler, testhelpers.AsCaller(testhelpers.NewRequest(http.MethodDelete, "/", nil), testhelpers.Citizen(), vars(issue.ID)))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestDetectCategoryHandler(t *testing.T) {
	h, _, _ := newIssueHandler(t)

	rr := testhelpers.Serve(h.DetectCategoryHandler, testhelpers.AsCaller(testhelpers.NewRequest(http.MethodPost, "/api/issues/ai-detect", nil), testhelpers.Citizen(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got models.CategoryDetection
	require.NoError(t, testhelpers.DecodeBody(rr, &got))
	assert.True(t, got.Category.Valid())
	assert.Equal(t, "AI detection successful (Mock)", got.Message)
}
