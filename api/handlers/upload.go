package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	cldapi "github.com/cloudinary/cloudinary-go/v2/api"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/config"
)

// Upload signs direct browser uploads of issue photos to Cloudinary
type Upload struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	Now          func() time.Time
}

// SignatureResponse carries the parameters the client posts to Cloudinary
type SignatureResponse struct {
	Timestamp    string `json:"timestamp"`
	Signature    string `json:"signature"`
	APIKey       string `json:"apiKey"`
	CloudName    string `json:"cloudName"`
	UploadPreset string `json:"uploadPreset,omitempty"`
}

// SignatureHandler generates a signature for Cloudinary uploads
func (u Upload) SignatureHandler(w http.ResponseWriter, r *http.Request) {
	if u.APISecret == "" {
		config.ErrorStatus("image uploads are not configured", http.StatusServiceUnavailable, w, nil)
		return
	}
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	timestamp := strconv.FormatInt(now().Unix(), 10)

	params := url.Values{}
	params.Set("timestamp", timestamp)
	if u.UploadPreset != "" {
		params.Set("upload_preset", u.UploadPreset)
	}
	signature, err := cldapi.SignParameters(params, u.APISecret)
	if err != nil {
		config.ErrorStatus("failed to sign upload", http.StatusInternalServerError, w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, SignatureResponse{
		Timestamp:    timestamp,
		Signature:    signature,
		APIKey:       u.APIKey,
		CloudName:    u.CloudName,
		UploadPreset: u.UploadPreset,
	})
}
