// Package httpapi exposes the Mathly application over a JSON REST API.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mathly/internal/app"
	"mathly/internal/graph"
	"mathly/internal/health"
	"mathly/internal/metrics"
	"mathly/internal/nutrition"
	"mathly/internal/profile"
	"mathly/internal/solution"
)

// Service is the application surface served over HTTP. *app.App satisfies it.
type Service interface {
	SolveEquation(ctx context.Context, expression string, source solution.Source) (solution.Solution, error)
	SolveWordProblem(ctx context.Context, problem string) (solution.WordProblem, error)
	SolveImage(ctx context.Context, image []byte, mimeType string) (solution.Solution, error)
	SolveURL(ctx context.Context, url string) (solution.WordProblem, error)
	History(ctx context.Context, limit int) ([]solution.Solution, error)
	Solution(ctx context.Context, id string) (solution.Solution, error)
	DeleteSolution(ctx context.Context, id string) error
	SolutionStream(ctx context.Context, limit int) <-chan app.SolutionsSnapshot
	AnalyzeCalories(ctx context.Context, description string) (nutrition.CaloriesAnalysis, error)
	CaloriesHistory(ctx context.Context, limit int) ([]nutrition.CaloriesAnalysis, error)
	RecordBMI(ctx context.Context, m health.Measurement) (health.BMIRecord, error)
	BMIHistory(ctx context.Context, limit int) ([]health.BMIRecord, error)
	CreateGraph(ctx context.Context, expression string, xMin, xMax float64) (graph.Graph, error)
	GraphPoints(ctx context.Context, id string, n int) (graph.Graph, []graph.Point, error)
	Graphs(ctx context.Context, limit int) ([]graph.Graph, error)
	Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
	SysHealth() metrics.SysHealth
}

// ProfileService is the account surface. *profile.Service satisfies it.
type ProfileService interface {
	SignIn(ctx context.Context, email, password string) (*profile.Session, error)
	SessionFromToken(ctx context.Context, token string) (*profile.Session, error)
	SignOut(ctx context.Context, session *profile.Session) error
	GetProfile(ctx context.Context, session *profile.Session) (profile.Profile, error)
	SaveProfile(ctx context.Context, session *profile.Session, p profile.Profile) (profile.Profile, error)
	UploadAvatar(ctx context.Context, session *profile.Session, data []byte, contentType string) (string, error)
}

// Options configures a Server. Profiles, Collector and Webhook are optional.
type Options struct {
	Service     Service
	Profiles    ProfileService
	Collector   *metrics.Collector
	Webhook     http.Handler
	CORSOrigins []string
	Logger      *zap.Logger
}

// Server handles HTTP requests for the application.
type Server struct {
	svc       Service
	profiles  ProfileService
	collector *metrics.Collector
	webhook   http.Handler
	origins   []string
	validate  *validator.Validate
	logger    *zap.Logger

	// streams is cancelled by CloseStreams to end open event streams.
	streams      context.Context
	closeStreams context.CancelFunc
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	streams, closeStreams := context.WithCancel(context.Background())
	return &Server{
		svc:          opts.Service,
		profiles:     opts.Profiles,
		collector:    opts.Collector,
		webhook:      opts.Webhook,
		origins:      origins,
		validate:     validator.New(),
		logger:       logger,
		streams:      streams,
		closeStreams: closeStreams,
	}
}

// CloseStreams ends every open event stream. http.Server.Shutdown waits
// for active requests, so register it with RegisterOnShutdown.
func (s *Server) CloseStreams() {
	s.closeStreams()
}

// Router configures all routes and middleware.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(s.logger))
	router.Use(Metrics(s.collector))

	router.Get("/health", s.health)
	if s.collector != nil {
		router.Method(http.MethodGet, "/metrics", s.collector.Handler())
	}
	if s.webhook != nil {
		router.Method(http.MethodPost, "/webhook", s.webhook)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))

		r.Post("/equations/solve", s.solveEquation)
		r.Post("/word-problems/solve", s.solveWordProblem)
		r.Post("/url/solve", s.solveURL)
		r.Post("/scan", s.scan)

		r.Route("/solutions", func(r chi.Router) {
			r.Get("/", s.listSolutions)
			r.Get("/stream", s.streamSolutions)
			r.Get("/{id}", s.getSolution)
			r.Delete("/{id}", s.deleteSolution)
		})

		r.Post("/calories", s.analyzeCalories)
		r.Get("/calories", s.listCalories)
		r.Post("/bmi", s.recordBMI)
		r.Get("/bmi", s.listBMI)

		r.Route("/graphs", func(r chi.Router) {
			r.Post("/", s.createGraph)
			r.Get("/", s.listGraphs)
			r.Get("/{id}/points", s.graphPoints)
		})

		r.Get("/usage", s.usage)

		if s.profiles != nil {
			r.Post("/auth/signin", s.signIn)
			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/auth/signout", s.signOut)
				r.Get("/profile", s.getProfile)
				r.Put("/profile", s.saveProfile)
				r.Post("/profile/avatar", s.uploadAvatar)
			})
		}
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"system": s.svc.SysHealth(),
	})
}
