package http

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shortlink-backend/internal/ratelimit"
	"shortlink-backend/internal/service"
)

// RedirectHandler serves the hot path: rate-limited short code resolution
// followed by an HTTP redirect.
type RedirectHandler struct {
	resolver *service.RedirectService
	limiter  *ratelimit.Registry
	limit    int
	window   time.Duration
	log      *zap.Logger
}

func NewRedirectHandler(resolver *service.RedirectService, limiter *ratelimit.Registry, limit int, window time.Duration, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		limiter:  limiter,
		limit:    limit,
		window:   window,
		log:      log,
	}
}

// HandleRedirect resolves the short code in the request path and issues a
// 302. Admission control runs before any store work.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/")

	// system endpoints are not short codes
	if code == "" || strings.HasPrefix(code, "api/") ||
		strings.HasPrefix(code, "health") || strings.HasPrefix(code, "ready") {
		http.NotFound(w, r)
		return
	}

	clientIP := extractIPAddress(r)

	if !h.limiter.Allow(clientIP, h.limit, h.window) {
		h.log.Debug("rate limit exceeded", zap.String("client_ip", clientIP))
		w.Header().Set("Retry-After", h.window.String())
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	link, err := h.resolver.Resolve(r.Context(), code, clientIP, r.UserAgent())
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			h.log.Debug("short code not found", zap.String("code", code))
			http.NotFound(w, r)
			return
		}
		h.log.Error("failed to process redirect", zap.String("code", code), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.log.Info("successful redirect",
		zap.String("code", code),
		zap.String("destination", link.Destination),
		zap.String("client_ip", clientIP))

	http.Redirect(w, r, link.Destination, http.StatusFound)
}

// extractIPAddress extracts the client IP, honoring proxy headers in
// priority order.
func extractIPAddress(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		// X-Forwarded-For may hold a comma-separated chain
		ips := strings.Split(ip, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
