package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InfoType distinguishes government schemes from public facilities
type InfoType string

// Info types
const (
	InfoScheme   InfoType = "Scheme"
	InfoFacility InfoType = "Facility"
)

// Region an info listing applies to
type Region string

// Regions
const (
	RegionAll   Region = "All"
	RegionRural Region = "Rural"
	RegionUrban Region = "Urban"
)

// Defaults filled in on informational listings
const (
	NotSpecified          = "Not specified"
	DefaultOperatingHours = "9:00 AM - 5:00 PM"
	DefaultLanguage       = "en"
)

// Info holds the structure for the infos collection in mongo
type Info struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	Type           InfoType           `json:"type" bson:"type"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	Region         Region             `json:"region" bson:"region"`
	Eligibility    string             `json:"eligibility,omitempty" bson:"eligibility,omitempty"`
	Benefits       string             `json:"benefits,omitempty" bson:"benefits,omitempty"`
	ContactInfo    string             `json:"contactInfo,omitempty" bson:"contactInfo,omitempty"`
	Address        string             `json:"address,omitempty" bson:"address,omitempty"`
	OperatingHours string             `json:"operatingHours,omitempty" bson:"operatingHours,omitempty"`
	Language       string             `json:"language" bson:"language"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ApplyDefaults fills the optional fields for the listing's type
func (i *Info) ApplyDefaults() {
	if i.Region == "" {
		i.Region = RegionAll
	}
	if i.Language == "" {
		i.Language = DefaultLanguage
	}
	switch i.Type {
	case InfoScheme:
		if i.Eligibility == "" {
			i.Eligibility = NotSpecified
		}
		if i.Benefits == "" {
			i.Benefits = NotSpecified
		}
	case InfoFacility:
		if i.ContactInfo == "" {
			i.ContactInfo = NotSpecified
		}
		if i.Address == "" {
			i.Address = NotSpecified
		}
		if i.OperatingHours == "" {
			i.OperatingHours = DefaultOperatingHours
		}
	}
}
