package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the kind of municipal problem being reported
type Category string

// Supported categories
const (
	CategoryPothole      Category = "Pothole"
	CategoryGarbage      Category = "Garbage"
	CategoryStreetLight  Category = "Street Light"
	CategoryWaterLeakage Category = "Water Leakage"
	CategoryElectricity  Category = "Electricity"
	CategoryOther        Category = "Other"
)

// Categories lists every valid category in display order
var Categories = []Category{
	CategoryPothole,
	CategoryGarbage,
	CategoryStreetLight,
	CategoryWaterLeakage,
	CategoryElectricity,
	CategoryOther,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of an issue
type Status string

// Issue statuses
const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusRejected   Status = "Rejected"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Priority of an issue, set at creation
type Priority string

// Issue priorities
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// DefaultAssignee is stored on new issues until an admin assigns one
const DefaultAssignee = "Unassigned"

// Location is where the issue was reported
type Location struct {
	Lat     float64 `json:"lat" bson:"lat"`
	Lng     float64 `json:"lng" bson:"lng"`
	Address string  `json:"address,omitempty" bson:"address,omitempty"`
}

// Feedback is the reporter's rating of a resolved issue
type Feedback struct {
	Rating  int    `json:"rating" bson:"rating"`
	Comment string `json:"comment,omitempty" bson:"comment,omitempty"`
}

// Issue holds the structure for the issues collection in mongo
type Issue struct {
	ID                    primitive.ObjectID `json:"_id" bson:"_id"`
	ReporterID            primitive.ObjectID `json:"user" bson:"user"`
	Title                 string             `json:"title" bson:"title"`
	Description           string             `json:"description" bson:"description"`
	Category              Category           `json:"category" bson:"category"`
	ImageURL              string             `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Location              Location           `json:"location" bson:"location"`
	Status                Status             `json:"status" bson:"status"`
	Priority              Priority           `json:"priority" bson:"priority"`
	AssignedTo            string             `json:"assignedTo" bson:"assignedTo"`
	ResolutionEvidenceURL string             `json:"resolutionEvidenceUrl,omitempty" bson:"resolutionEvidenceUrl,omitempty"`
	ResolvedAt            *time.Time         `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	Feedback              *Feedback          `json:"feedback,omitempty" bson:"feedback,omitempty"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ReporterView is the part of the reporter's identity a caller may see
type ReporterView struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name,omitempty"`
	Email string             `json:"email,omitempty"`
	Phone string             `json:"phone,omitempty"`
}

// IssueView is the client facing representation of an issue with the
// reporter identity attached
type IssueView struct {
	ID                    primitive.ObjectID `json:"_id"`
	Reporter              ReporterView       `json:"user"`
	Title                 string             `json:"title"`
	Description           string             `json:"description"`
	Category              Category           `json:"category"`
	ImageURL              string             `json:"imageUrl,omitempty"`
	Location              Location           `json:"location"`
	Status                Status             `json:"status"`
	Priority              Priority           `json:"priority"`
	AssignedTo            string             `json:"assignedTo"`
	ResolutionEvidenceURL string             `json:"resolutionEvidenceUrl,omitempty"`
	ResolvedAt            *time.Time         `json:"resolvedAt,omitempty"`
	Feedback              *Feedback          `json:"feedback,omitempty"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// IssueListResponse is a single page of issues
type IssueListResponse struct {
	Issues []IssueView `json:"issues"`
	Page   int         `json:"page"`
	Pages  int         `json:"pages"`
}

// CategoryDetection is the mocked response of the category detector
type CategoryDetection struct {
	Category   Category `json:"category"`
	Confidence string   `json:"confidence"`
	Message    string   `json:"message"`
}
