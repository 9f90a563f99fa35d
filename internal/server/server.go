package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/gymlog/internal/identity"
	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/session"
	"github.com/claude/gymlog/internal/storage"
	"github.com/claude/gymlog/internal/telemetry"
	"github.com/go-chi/chi/v5"
)

// Store is the storage the HTTP handlers read and write. *storage.DB satisfies it.
type Store interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID int, firstName, lastName string) (*models.Profile, error)
	DeleteUser(ctx context.Context, userID int) error

	ListPlans(ctx context.Context, userID int) ([]storage.PlanSummary, error)
	GetPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error)
	CreatePlan(ctx context.Context, userID int, plan *models.Plan) error
	UpdatePlan(ctx context.Context, userID int, plan *models.Plan) error
	DeletePlan(ctx context.Context, planID int64, userID int) error
	CopyPlan(ctx context.Context, planID int64, userID int) (*models.Plan, error)
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)

	InsertWorkoutLog(ctx context.Context, log *models.WorkoutLog) (bool, error)
	QueryWorkoutLogs(ctx context.Context, userID int, start, end time.Time, limit int) ([]models.WorkoutLog, error)
	ExerciseHistory(ctx context.Context, userID int, name string, start, end time.Time) ([]storage.HistoryEntry, error)
}

// PlanGateway is the session backend plus plan cache invalidation.
type PlanGateway interface {
	session.Gateway
	InvalidatePlan(userID int, planID int64)
}

// Options holds the optional collaborators of a Server.
type Options struct {
	// Identity resolves the caller of each request. Defaults to the dev user.
	Identity func(http.Handler) http.Handler
	// MCP is mounted at /mcp when set.
	MCP      http.Handler
	Registry *session.Registry
	Clock    session.Clock
	Metrics  *telemetry.Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	gw       PlanGateway
	sessions *session.Registry
	clock    session.Clock
	metrics  *telemetry.Metrics
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, gw PlanGateway, log *slog.Logger, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = session.SystemClock{}
	}
	if opts.Registry == nil {
		opts.Registry = session.NewRegistry(opts.Clock, 0, log)
	}
	if opts.Identity == nil {
		opts.Identity = DevIdentity(identity.DevUser)
	}
	s := &Server{
		store:    store,
		gw:       gw,
		sessions: opts.Registry,
		clock:    opts.Clock,
		metrics:  opts.Metrics,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes(opts)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sessions returns the live session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

func (s *Server) routes(opts Options) {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(telemetry.HTTPMiddleware("gymlog"))

	s.router.Group(func(r chi.Router) {
		r.Use(opts.Identity)

		r.Get("/api/v1/me", s.handleMe)
		r.Get("/api/v1/profile", s.handleGetProfile)
		r.Put("/api/v1/profile", s.handleUpdateProfile)
		r.Delete("/api/v1/profile", s.handleDeleteProfile)

		r.Get("/api/v1/plans", s.handleListPlans)
		r.Post("/api/v1/plans", s.handleCreatePlan)
		r.Get("/api/v1/plans/{id}", s.handleGetPlan)
		r.Put("/api/v1/plans/{id}", s.handleUpdatePlan)
		r.Delete("/api/v1/plans/{id}", s.handleDeletePlan)
		r.Post("/api/v1/plans/{id}/copy", s.handleCopyPlan)

		r.Get("/api/v1/exercises", s.handleListExercises)
		r.Get("/api/v1/exercises/history", s.handleExerciseHistory)

		r.Get("/api/v1/workout-logs", s.handleQueryWorkoutLogs)
		r.Post("/api/v1/workout-logs", s.handleInsertWorkoutLog)

		r.Route("/api/v1/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleCloseSession)
				r.Post("/workout/toggle", s.handleToggleWorkout)
				r.Post("/set/toggle", s.handleToggleSet)
				r.Put("/entries/{exercise}/{set}", s.handleEditEntry)
				r.Post("/finish", s.handleFinishSession)
			})
		})

		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
		}
	})
}
