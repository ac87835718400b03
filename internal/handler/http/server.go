package http

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shortlink-backend/internal/ratelimit"
	"shortlink-backend/internal/repository"
	"shortlink-backend/internal/service"
)

// Server wires the HTTP handlers together.
type Server struct {
	linksHandler    *LinksHandler
	redirectHandler *RedirectHandler
	healthHandler   *HealthHandler
	log             *zap.Logger
}

// NewServer creates the HTTP server facade over the core services.
func NewServer(
	storage repository.LinkStore,
	registration *service.RegistrationService,
	redirect *service.RedirectService,
	stats *service.StatsService,
	limiter *ratelimit.Registry,
	rateLimit int,
	rateWindow time.Duration,
	log *zap.Logger,
	baseURL string,
) *Server {
	return &Server{
		linksHandler:    NewLinksHandler(storage, registration, stats, log, baseURL),
		redirectHandler: NewRedirectHandler(redirect, limiter, rateLimit, rateWindow, log),
		healthHandler:   NewHealthHandler(storage, log),
		log:             log,
	}
}

// SetupRoutes builds the route table.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("/health", s.healthHandler.Health)
	mux.HandleFunc("/ready", s.healthHandler.Ready)

	// Link management API
	mux.HandleFunc("/api/links", s.linksHandler.CreateLink)
	mux.HandleFunc("/api/links/", s.handleLinksAPI)

	// Redirect endpoint - must be last, it owns the root
	mux.HandleFunc("/", s.redirectHandler.HandleRedirect)

	return mux
}

// handleLinksAPI routes /api/links/{code} and /api/links/{code}/stats.
func (s *Server) handleLinksAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/links/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	if code, ok := strings.CutSuffix(path, "/stats"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.linksHandler.GetStats(w, r, code)
		return
	}

	if strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.linksHandler.GetLink(w, r, path)
	case http.MethodPut:
		s.linksHandler.UpdateLink(w, r, path)
	case http.MethodDelete:
		s.linksHandler.DeleteLink(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
