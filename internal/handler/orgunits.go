package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/rosterpilot/internal/domain"
)

// OrgUnitsHandler lists the active organisational units.
type OrgUnitsHandler struct {
	units  domain.OrgUnitRepository
	logger *slog.Logger
}

// NewOrgUnitsHandler creates a new org units handler
func NewOrgUnitsHandler(units domain.OrgUnitRepository, logger *slog.Logger) *OrgUnitsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrgUnitsHandler{
		units:  units,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/org-units requests
func (h *OrgUnitsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	units, err := h.units.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list org units", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	site := r.URL.Query().Get("site")

	type unitResponse struct {
		Code     string `json:"code"`
		SiteCode string `json:"siteCode"`
		Name     string `json:"name"`
		UnitType string `json:"unitType"`
	}
	items := make([]unitResponse, 0, len(units))
	for _, u := range units {
		if site != "" && u.SiteCode != site {
			continue
		}
		items = append(items, unitResponse{
			Code:     u.Code,
			SiteCode: u.SiteCode,
			Name:     u.Name,
			UnitType: u.UnitType,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"units": items})
}
