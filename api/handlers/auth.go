package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/config"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/models"
)

// User handles sign up and sign in
type User struct {
	DB   databases.UserDatabase
	Auth *api.Authenticator
	// AdminCode grants the admin role at sign up. Empty disables admin sign up.
	AdminCode string
	Now       func() time.Time
}

// RegisterRequest is the sign up body
type RegisterRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Password  string `json:"password" validate:"required,min=6"`
	AdminCode string `json:"adminCode"`
}

// LoginRequest is the sign in body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HashPassword returns the bcrypt hash stored for password
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// RegisterHandler creates a citizen account, or an admin account when the
// correct sign up code is given, and signs it in
func (u User) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// check if the user already exists
	existing, err := u.DB.FindOne(ctx, bson.M{"email": email})
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("failed to register user", http.StatusInternalServerError, w, err)
		return
	}
	if existing != nil {
		config.ErrorStatus("User already exists", http.StatusBadRequest, w, nil)
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	role := models.RoleCitizen
	if u.AdminCode != "" && req.AdminCode == u.AdminCode {
		role = models.RoleAdmin
	}
	now := u.now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Password:  hashed,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.DB.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			config.ErrorStatus("User already exists", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to insert user", http.StatusInternalServerError, w, err)
		return
	}

	u.writeAuthResponse(w, http.StatusCreated, user)
}

// LoginHandler exchanges an email and password for a bearer token
func (u User) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	user, err := u.DB.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))})
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus("Invalid email or password", http.StatusUnauthorized, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to log in", http.StatusInternalServerError, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		config.ErrorStatus("Invalid email or password", http.StatusUnauthorized, w, err)
		return
	}

	u.writeAuthResponse(w, http.StatusOK, *user)
}

func (u User) writeAuthResponse(w http.ResponseWriter, code int, user models.User) {
	token, err := u.Auth.IssueToken(user)
	if err != nil {
		config.ErrorStatus("failed to issue token", http.StatusInternalServerError, w, err)
		return
	}
	api.WriteJSON(w, code, models.AuthResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
		Role:  user.Role,
		Token: token,
	})
}

func (u User) now() time.Time {
	if u.Now != nil {
		return u.Now().UTC()
	}
	return time.Now().UTC()
}
