package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"shortlink-backend/internal/repository"
	"shortlink-backend/internal/service"
	"shortlink-backend/internal/shortcode"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors to HTTP status codes. Internal details are
// logged, not leaked.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDestination),
		errors.Is(err, shortcode.ErrInvalidCustomCode):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrShortcodeConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "short code already in use"})
	case errors.Is(err, service.ErrLinkNotFound), errors.Is(err, repository.ErrLinkNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "link not found"})
	default:
		log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
