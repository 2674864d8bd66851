package testhelpers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/models"
)

// Citizen returns a principal with the citizen role
func Citizen() api.Principal {
	return api.Principal{ID: primitive.NewObjectID(), Name: "Citizen", Role: models.RoleCitizen}
}

// Admin returns a principal with the admin role
func Admin() api.Principal {
	return api.Principal{ID: primitive.NewObjectID(), Name: "Admin", Role: models.RoleAdmin}
}

// NewRequest builds a request with body encoded as JSON. A nil body sends
// no body, a string body is sent as is.
func NewRequest(method, target string, body interface{}) *http.Request {
	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		buf = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AsCaller returns req carrying p as the authenticated caller and the
// given mux route variables
func AsCaller(req *http.Request, p api.Principal, vars map[string]string) *http.Request {
	req = req.WithContext(api.WithPrincipal(req.Context(), p))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

// Serve runs h against req and returns the recorder
func Serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// DecodeBody unmarshals the recorded body into v
func DecodeBody(rr *httptest.ResponseRecorder, v interface{}) error {
	return json.Unmarshal(rr.Body.Bytes(), v)
}
