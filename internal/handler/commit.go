package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yourorg/rosterpilot/internal/service"
)

// CommitHandler applies previously issued write proposals.
type CommitHandler struct {
	commands *service.CommandService
	logger   *slog.Logger
}

// NewCommitHandler creates a new commit handler
func NewCommitHandler(commands *service.CommandService, logger *slog.Logger) *CommitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitHandler{
		commands: commands,
		logger:   logger,
	}
}

// ServeHTTP handles POST /api/assistant/commit requests
func (h *CommitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode commit request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "token is required"})
		return
	}

	resp, err := h.commands.Commit(r.Context(), req)
	if err != nil {
		h.logger.Info("commit rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
