package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
	"shortlink-backend/internal/service"
)

// LinksHandler serves the link management API.
type LinksHandler struct {
	storage      repository.LinkStore
	registration *service.RegistrationService
	stats        *service.StatsService
	log          *zap.Logger
	baseURL      string
}

func NewLinksHandler(
	storage repository.LinkStore,
	registration *service.RegistrationService,
	stats *service.StatsService,
	log *zap.Logger,
	baseURL string,
) *LinksHandler {
	return &LinksHandler{
		storage:      storage,
		registration: registration,
		stats:        stats,
		log:          log,
		baseURL:      baseURL,
	}
}

type createLinkRequest struct {
	URL        string `json:"url"`
	CustomCode string `json:"custom_code,omitempty"`
}

type updateLinkRequest struct {
	URL string `json:"url"`
}

type linkResponse struct {
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	Destination string    `json:"destination"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (h *LinksHandler) toResponse(link *domain.Link) linkResponse {
	return linkResponse{
		ShortCode:   link.Code,
		ShortURL:    strings.TrimSuffix(h.baseURL, "/") + "/" + link.Code,
		Destination: link.Destination,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// CreateLink registers a destination URL, optionally under a custom code.
// Registering an already known destination returns its existing link.
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	link, err := h.registration.Register(r.Context(), req.URL, req.CustomCode)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(link))
}

// GetLink returns the link registered under a short code.
func (h *LinksHandler) GetLink(w http.ResponseWriter, r *http.Request, code string) {
	link, err := h.storage.FindByCode(r.Context(), code)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(link))
}

// UpdateLink repoints an existing short code at a new destination.
func (h *LinksHandler) UpdateLink(w http.ResponseWriter, r *http.Request, code string) {
	var req updateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	link, err := h.registration.UpdateDestination(r.Context(), code, req.URL)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(link))
}

// DeleteLink removes a short code.
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request, code string) {
	if err := h.registration.Delete(r.Context(), code); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStats returns the access stats report for a short code.
func (h *LinksHandler) GetStats(w http.ResponseWriter, r *http.Request, code string) {
	report, err := h.stats.Report(r.Context(), code)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
