package quotes

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vantage-ops/vantage/internal/shared"
)

// Handler exposes the lifecycle operations over JSON. Tenant and actor are
// taken from context, injected upstream by the organization resolver.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the quotes handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tenant := shared.TenantFromContext(r.Context())
	actor := shared.ActorFromContext(r.Context())

	var (
		quote *Quote
		err   error
	)
	if req.FromProject {
		quote, err = h.service.CreateFromProject(r.Context(), tenant, req.ProjectID, actor)
	} else {
		quote, err = h.service.Create(r.Context(), tenant, req.ProjectID, actor)
	}
	if err != nil {
		h.logger.Error("create quote failed", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, quote)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	quote, err := h.service.Get(r.Context(), shared.TenantFromContext(r.Context()), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, quote)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotesRequest{}
	if v := r.URL.Query().Get("project_id"); v != "" {
		req.ProjectID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := QuoteStatus(v)
		req.Status = &status
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	req.Limit = perPage
	req.Offset = (page - 1) * perPage

	quotes, total, err := h.service.List(r.Context(), shared.TenantFromContext(r.Context()), req)
	if err != nil {
		h.logger.Error("list quotes failed", slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, ListResponse{
		Quotes: quotes,
		Meta:   shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Send)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept)
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.RevokeAcceptance)
}

func (h *Handler) Revise(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Revise)
}

type transitionFunc func(ctx context.Context, tenant string, id int64, actor string) (*Quote, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	tenant := shared.TenantFromContext(r.Context())
	actor := shared.ActorFromContext(r.Context())

	quote, err := fn(r.Context(), tenant, id, actor)
	if err != nil {
		h.logger.Error("quote transition failed", slog.Int64("quote_id", id), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, quote)
}

func (h *Handler) quoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid quote id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
