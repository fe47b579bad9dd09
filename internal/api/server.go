package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/lessonslice/internal/config"
	"github.com/dgallion1/lessonslice/internal/pathstore"
	"github.com/dgallion1/lessonslice/internal/pipeline"
	"github.com/dgallion1/lessonslice/internal/session"
	"github.com/dgallion1/lessonslice/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for lessonslice.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	sessions     *session.Store
	pathstore    *pathstore.Client // nil unless the pathstore sink is configured
	stats        *stats.Window
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, sessions *session.Store, ps *pathstore.Client, st *stats.Window, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		sessions:     sessions,
		pathstore:    ps,
		stats:        st,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/lessons", s.handleCreateLesson)
		r.Route("/api/lessons/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetLesson)
			r.Delete("/", s.handleDeleteLesson)
			r.Post("/nodes/{index}/rotate", s.handleRotateNode)
			r.Get("/export", s.handleExportLesson)
			r.Post("/publish", s.handlePublishLesson)
		})

		r.Post("/api/jobs", s.handleSubmitJobs)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/stores/{lessonID}", s.handleListStored)
		r.Delete("/api/stores/{lessonID}", s.handleDeleteStored)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
