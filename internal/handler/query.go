package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/rosterpilot/internal/service"
)

// QueryHandler handles free-text assistant commands.
type QueryHandler struct {
	commands *service.CommandService
	logger   *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(commands *service.CommandService, logger *slog.Logger) *QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{
		commands: commands,
		logger:   logger,
	}
}

// ServeHTTP handles POST /api/assistant/query requests
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode query request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	req.Command = strings.TrimSpace(req.Command)
	if req.Command == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "command is required"})
		return
	}

	resp, err := h.commands.Query(r.Context(), req)
	if err != nil {
		h.logger.Info("query rejected",
			slog.String("command", req.Command),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
