package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/rosterpilot/internal/audit"
)

// AuditHandler exposes the recent audit trail.
type AuditHandler struct {
	recorder *audit.Recorder
	logger   *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(recorder *audit.Recorder, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// ServeHTTP handles GET /api/audit requests
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	site := r.URL.Query().Get("site")
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := h.recorder.Recent(r.Context(), site, limit)
	if err != nil {
		h.logger.Error("failed to load audit entries", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
