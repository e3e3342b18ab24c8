package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vantage-ops/vantage/internal/shared"
)

// Handler serves the audit timeline as JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the audit handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches the audit endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects/{projectID}/audit", h.Timeline)
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	filters := TimelineFilters{
		Tenant:    shared.TenantFromContext(r.Context()),
		ProjectID: projectID,
		Action:    r.URL.Query().Get("action"),
		Actor:     r.URL.Query().Get("actor"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		filters.PageSize = size
	}
	if from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from")); err == nil {
		filters.From = from
	}
	if to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to")); err == nil {
		filters.To = to
	}

	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline failed", slog.Any("error", err), slog.Int64("project_id", projectID))
		shared.RespondError(w, err)
		return
	}

	shared.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":   result.Rows,
		"paging": result.Paging,
	})
}
