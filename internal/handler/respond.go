package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the error category to an HTTP status. Messages are
// already user-facing German sentences; internal causes stay in the
// logs.
func writeError(w http.ResponseWriter, err error) {
	category := domain.CategoryOf(err)
	status := http.StatusInternalServerError
	switch category {
	case domain.ErrValidation:
		status = http.StatusBadRequest
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrToken:
		status = http.StatusConflict
	case domain.ErrUpstreamParse:
		status = http.StatusBadGateway
	case domain.ErrStore:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ErrorResponse{
		Error:    domain.MessageOf(err),
		Category: string(category),
	})
}
