package models

// ErrorMessageResponse is the body written for every failed request
type ErrorMessageResponse struct {
	Message string `json:"message"`
}

// MessageResponse is returned by endpoints that only confirm an action
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthCheckResponse is the body of the /health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
