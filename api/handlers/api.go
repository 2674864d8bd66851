package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fixitnow/fixitnow-api/api"
	"github.com/fixitnow/fixitnow-api/api/scheduler"
	"github.com/fixitnow/fixitnow-api/apperrors"
	"github.com/fixitnow/fixitnow-api/config"
	"github.com/fixitnow/fixitnow-api/databases"
	"github.com/fixitnow/fixitnow-api/issues"
	"github.com/fixitnow/fixitnow-api/models"
	"github.com/fixitnow/fixitnow-api/notify"
)

const (
	// localClientOrigin is the dev server of the web client
	localClientOrigin     = "http://127.0.0.1:5173"
	defaultRequestTimeout = 30 * time.Second
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler

	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
	redis    *redis.Client
	metrics  *api.Metrics
	notifier issues.Notifier
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.metrics == nil {
		a.metrics = api.NewMetrics()
	}
	if a.notifier == nil {
		a.notifier = notify.LogNotifier{}
	}

	idb := databases.NewIssueDatabase(a.dbHelper)
	udb := databases.NewUserDatabase(a.dbHelper)
	policy := issues.ParseTransitionPolicy(a.Config.StatusTransitions)
	manager := issues.NewManager(idb, udb, policy, a.notifier)

	auth := api.NewAuthenticator(a.Config.JWTSecret, a.Config.TokenTTL)
	var limiter *api.IssueRateLimiter
	if a.redis != nil {
		limiter = api.NewIssueRateLimiter(a.redis, a.Config.IssuesPerDay, a.metrics)
	}

	u := User{DB: udb, Auth: auth, AdminCode: a.Config.AdminSignupCode}
	i := Issue{Manager: manager}
	an := Analytics{Aggregator: issues.NewAggregator(idb)}
	info := Info{DB: databases.NewInfoDatabase(a.dbHelper)}
	up := Upload{
		CloudName:    a.Config.CloudinaryCloudName,
		APIKey:       a.Config.CloudinaryAPIKey,
		APISecret:    a.Config.CloudinaryAPISecret,
		UploadPreset: a.Config.CloudinaryUploadPreset,
	}

	r := mux.NewRouter()
	r.Use(api.RequestLogger(a.metrics))
	r.Use(api.CORSMiddleware(localClientOrigin, a.Config.ClientURL))
	r.Use(api.BodyLimitMiddleware(api.MaxBodyBytes))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")
	r.Handle("/metrics", a.metrics.Handler()).Methods("GET")
	r.HandleFunc("/", rootHandler).Methods("GET")

	apiCreate := r.PathPrefix("/api").Subrouter()
	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	apiCreate.Use(api.TimeoutMiddleware(timeout))
	// preflight requests are answered by the CORS middleware
	apiCreate.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(api.RequireAdmin(h))
	}

	apiCreate.Handle("/auth/register", http.HandlerFunc(u.RegisterHandler)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(u.LoginHandler)).Methods("POST")

	apiCreate.Handle("/issues", auth.Middleware(limiter.Middleware(http.HandlerFunc(i.CreateIssueHandler)))).Methods("POST")
	apiCreate.Handle("/issues", protect(i.IssuesHandler)).Methods("GET")
	apiCreate.Handle("/issues/my", protect(i.MyIssuesHandler)).Methods("GET")
	apiCreate.Handle("/issues/ai-detect", protect(i.DetectCategoryHandler)).Methods("POST")
	apiCreate.Handle("/issues/{issue_id}", protect(i.IssueByIDHandler)).Methods("GET")
	apiCreate.Handle("/issues/{issue_id}", protect(i.DeleteIssueHandler)).Methods("DELETE")
	apiCreate.Handle("/issues/{issue_id}/status", admin(i.UpdateIssueStatusHandler)).Methods("PUT")
	apiCreate.Handle("/issues/{issue_id}/feedback", protect(i.IssueFeedbackHandler)).Methods("PUT")

	apiCreate.Handle("/analytics/dashboard", admin(an.DashboardHandler)).Methods("GET")

	apiCreate.Handle("/info", http.HandlerFunc(info.InfoHandler)).Methods("GET")
	apiCreate.Handle("/info", admin(info.CreateInfoHandler)).Methods("POST")
	apiCreate.Handle("/info/{info_id}", admin(info.UpdateInfoHandler)).Methods("PUT")
	apiCreate.Handle("/info/{info_id}", admin(info.DeleteInfoHandler)).Methods("DELETE")

	apiCreate.Handle("/uploads/signature", protect(up.SignatureHandler)).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)

	ctx, cancel := api.WithQueryTimeout(context.Background())
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	if err := client.Ping(ctx); err != nil {
		zap.S().Errorw("failed to ping database", "error", err)
		return err
	}
	zap.S().Info("fixitnow-api has connected to the database")

	if err := databases.NewIssueDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("issue indexes: %w", err)
	}
	if err := databases.NewUserDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}

	a.redis = api.NewRedisClient(&a.Config)
	if a.redis == nil {
		zap.S().Warn("REDIS_ADDRESS is not set, issue rate limiting is disabled")
	}

	if a.Config.SendgridAPIKey != "" {
		a.notifier = notify.NewEmailNotifier(a.Config.SendgridAPIKey, a.Config.MailFrom)
	} else {
		a.notifier = notify.LogNotifier{}
	}

	a.metrics = api.NewMetrics()
	a.Scheduler = scheduler.NewScheduler(issues.NewSweeper(databases.NewIssueDatabase(a.dbHelper)), a.metrics)

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Shutdown stops the cleanup schedule, waits for pending notification
// emails and closes the database and redis connections.
func (a *App) Shutdown(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if n, ok := a.notifier.(*notify.EmailNotifier); ok {
		n.Wait()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			zap.S().Warnw("failed to close redis client", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, models.HealthCheckResponse{
		Alive: true,
	})
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "FixItNow API is running"})
}

// writeError maps a lifecycle error onto its HTTP status. The message of a
// typed error is written as is, anything else becomes a generic 500.
func writeError(w http.ResponseWriter, err error) {
	config.ErrorStatus(apperrors.MessageOf(err, "Server Error"), statusFor(apperrors.KindOf(err)), w, err)
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.Validation:
		return http.StatusBadRequest
	case apperrors.Authorization:
		return http.StatusForbidden
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// callerFrom returns the authenticated caller as the issues package sees it
func callerFrom(r *http.Request) (issues.Caller, bool) {
	p, ok := api.PrincipalFrom(r.Context())
	if !ok {
		return issues.Caller{}, false
	}
	return issues.Caller{ID: p.ID, Role: p.Role}, true
}
