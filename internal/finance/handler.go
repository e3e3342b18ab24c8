package finance

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vantage-ops/vantage/internal/shared"
)

// Handler serves the read-side finance snapshot.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the finance handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches the finance endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/finance", h.Snapshot)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	tenant := shared.TenantFromContext(r.Context())
	snap, err := h.service.Snapshot(r.Context(), tenant, projectID)
	if err != nil {
		h.logger.Error("finance snapshot failed", slog.Any("error", err), slog.Int64("project_id", projectID))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, snap)
}
