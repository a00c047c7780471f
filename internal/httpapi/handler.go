// Package httpapi exposes the booking workflow over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"venue-crm/internal/apperror"
	"venue-crm/internal/models"
	"venue-crm/internal/workflow"
)

// Workflow is the set of operations the handlers call.
type Workflow interface {
	State() models.State
	Reset(ctx context.Context) (models.State, error)
	Availability(date string) (string, []string)
	SimulateInquiry(ctx context.Context, in workflow.InquiryInput) (models.Lead, error)
	BookTour(ctx context.Context, in workflow.BookInput) (models.Tour, error)
	ConfirmEvent(ctx context.Context, tourID, eventDate string) (models.Booking, error)
	CreateInvoice(ctx context.Context, bookingID string, amount *decimal.Decimal) (models.Invoice, error)
	GetInvoice(id string) (models.Invoice, error)
	PayInvoice(ctx context.Context, id string, payer models.Payer) (models.Invoice, error)
	RecordInbound(ctx context.Context, phone, text string) (models.Message, error)
}

// Handler wraps HTTP handlers with logger, workflow and validator.
type Handler struct {
	log      zerolog.Logger
	wf       Workflow
	validate *validator.Validate
	webhook  WebhookConfig
}

// New creates a new Handler instance.
func New(log zerolog.Logger, wf Workflow, v *validator.Validate, webhook WebhookConfig) *Handler {
	return &Handler{
		log:      log.With().Str("component", "httpapi").Logger(),
		wf:       wf,
		validate: v,
		webhook:  webhook,
	}
}

type simulateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email" validate:"omitempty,email"`
}

type bookRequest struct {
	Phone string `json:"phone" validate:"required"`
	Date  string `json:"date" validate:"required"`
	Time  string `json:"time" validate:"required"`
}

type confirmRequest struct {
	TourID    string `json:"tourId" validate:"required"`
	EventDate string `json:"eventDate" validate:"required,isodate"`
}

type invoiceRequest struct {
	BookingID string           `json:"bookingId" validate:"required"`
	Amount    *decimal.Decimal `json:"amount" validate:"-"`
}

type payRequest struct {
	Payer struct {
		Name  string `json:"name"`
		Email string `json:"email" validate:"omitempty,email"`
		Phone string `json:"phone"`
	} `json:"payer"`
}

type resetResponse struct {
	OK bool `json:"ok"`
	models.State
}

// bind decodes the body into dst and validates it.
func (h *Handler) bind(r *http.Request, dst interface{}) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperror.FromValidator(err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.StatusCode(err) >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, err)
}

// Health is a simple health check endpoint.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.wf.State())
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	date, slots := h.wf.Availability(r.URL.Query().Get("date"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"date": date, "slots": slots})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	state, err := h.wf.Reset(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{OK: true, State: state})
}

func (h *Handler) SimulatePricingGuide(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	lead, err := h.wf.SimulateInquiry(r.Context(), workflow.InquiryInput{Name: req.Name, Phone: req.Phone, Email: req.Email})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "lead": lead})
}

func (h *Handler) BookTour(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	tour, err := h.wf.BookTour(r.Context(), workflow.BookInput{Phone: req.Phone, Date: req.Date, Time: req.Time})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "tour": tour})
}

func (h *Handler) ConfirmEvent(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	booking, err := h.wf.ConfirmEvent(r.Context(), req.TourID, req.EventDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "booking": booking})
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	inv, err := h.wf.CreateInvoice(r.Context(), req.BookingID, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "invoice": inv})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.wf.GetInvoice(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "invoice": inv})
}

func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if err := h.bind(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	payer := models.Payer{Name: req.Payer.Name, Email: req.Payer.Email, Phone: req.Payer.Phone}
	inv, err := h.wf.PayInvoice(r.Context(), chi.URLParam(r, "id"), payer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "invoice": inv})
}
