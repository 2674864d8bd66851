package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/config"
	"github.com/fixitnow/fixitnow-api/issues"
	"github.com/fixitnow/fixitnow-api/models"
)

// Issue exposes the issue lifecycle over HTTP
type Issue struct {
	Manager *issues.Manager
}

// CreateIssueHandler files a new issue for the caller
func (i Issue) CreateIssueHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	var in issues.CreateInput
	if err := api.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	issue, err := i.Manager.Create(r.Context(), caller, in)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := i.Manager.ViewOne(r.Context(), caller.Role, *issue)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, view)
}

// IssuesHandler returns one page of issues, optionally filtered by status
// and category
func (i Issue) IssuesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("pageNumber"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := i.Manager.List(r.Context(), issues.ListQuery{
		Status:   models.Status(q.Get("status")),
		Category: models.Category(q.Get("category")),
		Page:     page,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := i.Manager.View(r.Context(), caller.Role, result.Issues...)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, models.IssueListResponse{
		Issues: views,
		Page:   result.Page,
		Pages:  result.Pages,
	})
}

// MyIssuesHandler returns every issue the caller reported, newest first
func (i Issue) MyIssuesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	list, err := i.Manager.ListByReporter(r.Context(), caller.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	views, err := i.Manager.View(r.Context(), caller.Role, list...)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, views)
}

// IssueByIDHandler returns a single issue
func (i Issue) IssueByIDHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	id, err := issueID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	issue, err := i.Manager.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	i.writeView(w, r, caller, issue)
}

// UpdateIssueStatusHandler lets an admin move an issue to a new status
func (i Issue) UpdateIssueStatusHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	id, err := issueID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in issues.StatusInput
	if err := api.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	issue, err := i.Manager.SetStatus(r.Context(), caller, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	i.writeView(w, r, caller, issue)
}

// IssueFeedbackHandler stores the reporter's rating of a resolved issue
func (i Issue) IssueFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	id, err := issueID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in issues.FeedbackInput
	if err := api.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	issue, err := i.Manager.SetFeedback(r.Context(), caller, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	i.writeView(w, r, caller, issue)
}

// DeleteIssueHandler removes an unresolved issue on behalf of its reporter
func (i Issue) DeleteIssueHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		config.ErrorStatus("not authorized, no token", http.StatusUnauthorized, w, nil)
		return
	}
	id, err := issueID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := i.Manager.Delete(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Complaint deleted successfully"})
}

// DetectCategoryHandler suggests a category for an issue photo
func (i Issue) DetectCategoryHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, issues.DetectCategory())
}

func (i Issue) writeView(w http.ResponseWriter, r *http.Request, caller issues.Caller, issue *models.Issue) {
	view, err := i.Manager.ViewOne(r.Context(), caller.Role, *issue)
	if err != nil {
		writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, view)
}

func issueID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["issue_id"])
	if err != nil {
		return primitive.NilObjectID, apperrors.NewValidation("invalid issue id")
	}
	return id, nil
}
