package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yourorg/rosterpilot/internal/service"
)

// RosterHandler handles the grid-shaped roster endpoints.
type RosterHandler struct {
	roster *service.RosterService
	logger *slog.Logger
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(roster *service.RosterService, logger *slog.Logger) *RosterHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterHandler{
		roster: roster,
		logger: logger,
	}
}

// Save handles POST /api/roster/save
func (h *RosterHandler) Save(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.SaveGridRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode save request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if req.Unit == "" || req.Year == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unit and year are required"})
		return
	}

	resp, err := h.roster.SaveGrid(r.Context(), req)
	if err != nil {
		h.logger.Info("grid save rejected",
			slog.String("unit", req.Unit),
			slog.Int("year", req.Year),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/roster/list
func (h *RosterHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	unit := r.URL.Query().Get("unit")
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if unit == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unit and year are required"})
		return
	}

	rows, err := h.roster.ListGrid(r.Context(), unit, year, r.URL.Query().Get("serviceType"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"unit": unit,
		"year": year,
		"rows": rows,
	})
}

// Rollover handles POST /api/roster/rollover
func (h *RosterHandler) Rollover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req service.RolloverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode rollover request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	resp, err := h.roster.Rollover(r.Context(), req)
	if err != nil {
		h.logger.Info("rollover rejected",
			slog.String("unit", req.Unit),
			slog.Int("fromYear", req.FromYear),
			slog.Int("toYear", req.ToYear),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
