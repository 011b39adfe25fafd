package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/gedgraph/internal/config"
	"github.com/dgallion1/gedgraph/internal/pipeline"
)

// Server is the HTTP API server for gedgraph.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	metrics      *pipeline.Metrics
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. metrics may be nil,
// in which case /metrics is not served.
func NewServer(orch *pipeline.Orchestrator, metrics *pipeline.Metrics, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		metrics:      metrics,
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
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/tree", s.handleSaveTree)
		r.Get("/tree", s.handleGetTree)
		r.Post("/import/gedcomx", s.handleImportGedcomX)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats/store", s.handleStoreStats)

		r.Route("/api/documents/{jobID}", func(r chi.Router) {
			r.Get("/individuals", s.handleListIndividuals)
			r.Get("/individuals/{id}", s.handleGetIndividual)
			r.Get("/individuals/{id}/ancestors", s.handleAncestors)
			r.Get("/individuals/{id}/descendants", s.handleDescendants)
			r.Get("/individuals/{id}/report", s.handleReport)
			r.Get("/families/{id}/members", s.handleFamilyMembers)
			r.Get("/path", s.handlePath)
			r.Get("/gedcom", s.handleGedcom)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"backend":     s.cfg.Backend,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
