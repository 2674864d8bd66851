package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fixitnow/fixitnow-api/logging"
	"github.com/fixitnow/fixitnow-api/models"
)

// Config holds the project config values
type Config struct {
	URL             string
	DatabaseName    string
	BaseURL         string
	Port            string
	Environment     string
	ClientURL       string
	RequestTimeout  time.Duration
	JWTSecret       string
	TokenTTL        time.Duration
	AdminSignupCode string

	RedisAddress  string
	RedisPassword string
	IssuesPerDay  int

	// StatusTransitions is either "open" or "strict"
	StatusTransitions string

	SendgridAPIKey string
	MailFrom       string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string
}

// New sets up all config related services
func New() *Config {
	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "local")

	//setup zap logger and replace default logger
	logger, err := logging.New(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                    os.Getenv("DB_URI"),
		DatabaseName:           getEnv("DB_NAME", "fixitnow"),
		BaseURL:                os.Getenv("BASE_URL"),
		Port:                   getEnv("PORT", "8000"),
		Environment:            env,
		ClientURL:              getEnv("CLIENT_URL", "http://localhost:5173"),
		RequestTimeout:         getDuration("REQUEST_TIMEOUT", 30*time.Second),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		TokenTTL:               getDuration("JWT_TTL", 30*24*time.Hour),
		AdminSignupCode:        os.Getenv("ADMIN_SIGNUP_CODE"),
		RedisAddress:           os.Getenv("REDIS_ADDRESS"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		IssuesPerDay:           getInt("ISSUES_PER_DAY", 20),
		StatusTransitions:      getEnv("STATUS_TRANSITIONS", "open"),
		SendgridAPIKey:         os.Getenv("SENDGRID_API_KEY"),
		MailFrom:               getEnv("MAIL_FROM", "no-reply@fixitnow.app"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. Only the message is sent to the client.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Message: message})
	_, _ = w.Write(b)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnw("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnw("invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
