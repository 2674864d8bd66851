package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/config"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/models"
)

// Info manages the scheme and facility listings
type Info struct {
	DB  databases.InfoDatabase
	Now func() time.Time
}

// InfoInput is the body of an info create or update. On update empty
// fields keep their stored value.
type InfoInput struct {
	Type           models.InfoType `json:"type" validate:"omitempty,oneof=Scheme Facility"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Region         models.Region   `json:"region" validate:"omitempty,oneof=All Rural Urban"`
	Eligibility    string          `json:"eligibility"`
	Benefits       string          `json:"benefits"`
	ContactInfo    string          `json:"contactInfo"`
	Address        string          `json:"address"`
	OperatingHours string          `json:"operatingHours"`
	Language       string          `json:"language"`
}

func (i Info) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}

// InfoHandler lists the listings, newest first. A region of All does not filter.
func (i Info) InfoHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bson.M{}
	if t := q.Get("type"); t != "" {
		filter["type"] = t
	}
	if region := q.Get("region"); region != "" && models.Region(region) != models.RegionAll {
		filter["region"] = region
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	infos, err := i.DB.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		config.ErrorStatus("Server error", http.StatusInternalServerError, w, err)
		return
	}
	if infos == nil {
		infos = []models.Info{}
	}
	api.WriteJSON(w, http.StatusOK, infos)
}

// CreateInfoHandler stores a new listing with the defaults of its type
func (i Info) CreateInfoHandler(w http.ResponseWriter, r *http.Request) {
	var in InfoInput
	if err := api.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if in.Type == "" || title == "" || description == "" {
		config.ErrorStatus("Title, description and type are required", http.StatusBadRequest, w, nil)
		return
	}

	now := i.now()
	info := models.Info{
		ID:             primitive.NewObjectID(),
		Type:           in.Type,
		Title:          title,
		Description:    description,
		Region:         in.Region,
		Eligibility:    strings.TrimSpace(in.Eligibility),
		Benefits:       strings.TrimSpace(in.Benefits),
		ContactInfo:    strings.TrimSpace(in.ContactInfo),
		Address:        strings.TrimSpace(in.Address),
		OperatingHours: strings.TrimSpace(in.OperatingHours),
		Language:       strings.TrimSpace(in.Language),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	info.ApplyDefaults()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	if err := i.DB.InsertOne(ctx, info); err != nil {
		config.ErrorStatus("Failed to create info", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, info)
}

// UpdateInfoHandler overwrites the non-empty fields relevant to the
// listing's type
func (i Info) UpdateInfoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["info_id"])
	if err != nil {
		config.ErrorStatus("Not found", http.StatusNotFound, w, err)
		return
	}
	var in InfoInput
	if err := api.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	current, err := i.DB.FindOne(ctx, bson.M{"_id": id})
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("Not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("Update failed", http.StatusInternalServerError, w, err)
		return
	}

	set := bson.M{"updatedAt": i.now()}
	setIf := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			set[key] = v
		}
	}
	setIf("title", in.Title)
	setIf("description", in.Description)
	setIf("region", string(in.Region))
	if current.Type == models.InfoScheme {
		setIf("eligibility", in.Eligibility)
		setIf("benefits", in.Benefits)
	} else {
		setIf("contactInfo", in.ContactInfo)
		setIf("address", in.Address)
		setIf("operatingHours", in.OperatingHours)
	}

	updated, err := i.DB.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("Not found", http.StatusNotFound, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("Update failed", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

// DeleteInfoHandler removes a listing
func (i Info) DeleteInfoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["info_id"])
	if err != nil {
		config.ErrorStatus("Not found", http.StatusNotFound, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	deleted, err := i.DB.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		config.ErrorStatus("Delete failed", http.StatusInternalServerError, w, err)
		return
	}
	if deleted == 0 {
		config.ErrorStatus("Not found", http.StatusNotFound, w, nil)
		return
	}
	api.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Deleted"})
}
