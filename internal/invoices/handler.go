package invoices

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vantage-ops/vantage/internal/shared"
)

// GenerateRequest derives an invoice from an accepted quote.
type GenerateRequest struct {
	QuoteID int64 `json:"quote_id" validate:"required,gt=0"`
}

// PaymentRequest registers a payment against an invoice.
type PaymentRequest struct {
	Amount    float64 `json:"amount" validate:"required"`
	Method    string  `json:"method" validate:"required,max=40"`
	Reference string  `json:"reference" validate:"max=120"`
}

// Handler exposes invoice generation and payment registration over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds the invoices handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes attaches the invoice endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.Generate)
	r.Get("/invoices/{id}", h.Show)
	r.Get("/invoices/{id}/payments", h.Payments)
	r.Post("/invoices/{id}/payments", h.RegisterPayment)
	r.Get("/projects/{projectID}/invoices", h.ListForProject)
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
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
	invoice, err := h.service.GenerateFromQuote(r.Context(), tenant, req.QuoteID, actor)
	if err != nil {
		h.logger.Error("generate invoice failed", slog.Int64("quote_id", req.QuoteID), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, invoice)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	invoice, err := h.service.Get(r.Context(), shared.TenantFromContext(r.Context()), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, invoice)
}

func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	payments, err := h.service.Payments(r.Context(), shared.TenantFromContext(r.Context()), id)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, payments)
}

func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.invoiceID(w, r)
	if !ok {
		return
	}
	var req PaymentRequest
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
	invoice, err := h.service.RegisterPayment(r.Context(), tenant, id, req.Amount, req.Method, req.Reference, actor)
	if err != nil {
		h.logger.Error("register payment failed", slog.Int64("invoice_id", id), slog.Any("error", err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, invoice)
}

func (h *Handler) ListForProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "projectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}
	invoices, err := h.service.ListForProject(r.Context(), shared.TenantFromContext(r.Context()), projectID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, invoices)
}

func (h *Handler) invoiceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
