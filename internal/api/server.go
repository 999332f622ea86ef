package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/dgallion1/md2docx/internal/config"
	"github.com/dgallion1/md2docx/internal/convert"
	"github.com/dgallion1/md2docx/internal/pipeline"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

const serviceName = "md2docx-api"

// Server is the HTTP API server for md2docx.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	conv         *convert.Service
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. Conversions run on
// orch; conv is used directly for parse-only requests.
func NewServer(orch *pipeline.Orchestrator, conv *convert.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		conv:         conv,
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
	r.Use(RequestID)
	r.Use(RequestLogger(s.log))
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
			MaxAge:         300,
		}))
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}
		r.Use(httprate.Limit(s.cfg.RateLimit, s.cfg.RateWindow,
			httprate.WithKeyByIP(),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				jsonError(w, "rate limit exceeded", http.StatusTooManyRequests)
			}),
		))
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))

		r.Post("/parse", s.handleParse)
		r.Post("/convert", s.handleConvert)
		r.Post("/convert/file", s.handleConvertFile)
		r.Get("/branding/sample", s.handleBrandingSample)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/document", s.handleJobDocument)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
		"service": serviceName,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
