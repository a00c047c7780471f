package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"venue-crm/internal/apperror"
	"venue-crm/internal/datetime"
	"venue-crm/internal/models"
	"venue-crm/internal/notify"
)

var (
	// DefaultInvoiceAmount is the venue reservation price when none is given.
	DefaultInvoiceAmount = decimal.NewFromInt(45000)
	// ServiceFee is added to every invoice.
	ServiceFee = decimal.NewFromInt(750)
)

const invoiceTerm = 7 * 24 * time.Hour

// CreateInvoice issues an invoice for a booking. A nil amount means DefaultInvoiceAmount.
func (e *Engine) CreateInvoice(ctx context.Context, bookingID string, amount *decimal.Decimal) (models.Invoice, error) {
	inv, lead, err := e.createInvoice(strings.TrimSpace(bookingID), amount)
	e.metrics.Transition("create_invoice", err)
	if err != nil {
		return models.Invoice{}, err
	}

	e.log.Info().
		Str("invoice_id", inv.ID).
		Str("booking_id", inv.BookingID).
		Str("total", inv.Total.String()).
		Msg("Invoice created")
	e.send(ctx, notify.Notification{
		Name:    lead.Name,
		Email:   lead.Email,
		Subject: invoiceSubject(e.opts.VenueName),
		Text:    invoiceText(inv.ID, inv.Total, inv.Currency, datetime.FormatDate(inv.DueDate)),
	})
	return inv, nil
}

func (e *Engine) createInvoice(bookingID string, amount *decimal.Decimal) (models.Invoice, models.Lead, error) {
	if bookingID == "" {
		return models.Invoice{}, models.Lead{}, apperror.Validation("bookingId is required")
	}
	price := DefaultInvoiceAmount
	if amount != nil {
		price = *amount
	}
	if !price.IsPositive() {
		return models.Invoice{}, models.Lead{}, apperror.Validation("amount must be a positive number")
	}

	var (
		inv  models.Invoice
		lead models.Lead
	)
	err := e.store.Mutate(func(s *models.State) error {
		bi := s.BookingByID(bookingID)
		if bi < 0 {
			return apperror.NotFound("booking", bookingID)
		}
		booking := s.Bookings[bi]
		if li := s.LeadByID(booking.LeadID); li >= 0 {
			lead = s.Leads[li]
		}

		issued := e.now()
		total := price.Add(ServiceFee)
		inv = models.Invoice{
			ID:        e.newID("inv"),
			BookingID: booking.ID,
			LeadID:    booking.LeadID,
			IssueDate: issued,
			DueDate:   issued.Add(invoiceTerm),
			LineItems: []models.LineItem{
				{ID: e.newID("li"), Description: "Venue reservation - " + booking.Date, Qty: 1, UnitPrice: price},
				{ID: e.newID("li"), Description: "Service fee", Qty: 1, UnitPrice: ServiceFee},
			},
			Currency:   models.CurrencyUSD,
			Status:     models.InvoiceSent,
			Total:      total,
			BalanceDue: total,
		}
		s.Invoices = append([]models.Invoice{inv.Clone()}, s.Invoices...)
		return nil
	})
	if err != nil {
		return models.Invoice{}, models.Lead{}, err
	}
	return inv, lead, nil
}

// GetInvoice returns the invoice with id.
func (e *Engine) GetInvoice(id string) (models.Invoice, error) {
	state := e.store.Snapshot()
	idx := state.InvoiceByID(strings.TrimSpace(id))
	if idx < 0 {
		return models.Invoice{}, apperror.NotFound("invoice", id)
	}
	return state.Invoices[idx], nil
}

// PayInvoice settles an invoice in full. Paying again leaves it paid; paidAt
// keeps the first payment time and payer is replaced only when supplied.
func (e *Engine) PayInvoice(ctx context.Context, id string, payer models.Payer) (models.Invoice, error) {
	inv, lead, firstPayment, err := e.payInvoice(strings.TrimSpace(id), payer)
	e.metrics.Transition("pay_invoice", err)
	if err != nil {
		return models.Invoice{}, err
	}

	e.log.Info().Str("invoice_id", inv.ID).Bool("first_payment", firstPayment).Msg("Invoice paid")
	if !firstPayment {
		return inv, nil
	}

	email, name := lead.Email, lead.Name
	if inv.Payer != nil && inv.Payer.Email != "" {
		email, name = inv.Payer.Email, inv.Payer.Name
	}
	e.send(ctx, notify.Notification{
		Name:    name,
		Email:   email,
		Subject: receiptSubject(e.opts.VenueName),
		Text:    receiptText(inv.ID, inv.Total, inv.Currency),
	})
	return inv, nil
}

func (e *Engine) payInvoice(id string, payer models.Payer) (models.Invoice, models.Lead, bool, error) {
	var (
		inv   models.Invoice
		lead  models.Lead
		first bool
	)
	err := e.store.Mutate(func(s *models.State) error {
		idx := s.InvoiceByID(id)
		if idx < 0 {
			return apperror.NotFound("invoice", id)
		}
		target := &s.Invoices[idx]

		if target.Status != models.InvoicePaid || target.PaidAt == nil {
			paidAt := e.now()
			target.PaidAt = &paidAt
			first = true
		}
		target.Status = models.InvoicePaid
		target.BalanceDue = decimal.Zero
		if !payer.IsZero() {
			p := payer
			target.Payer = &p
		}
		inv = target.Clone()

		if li := s.LeadByID(target.LeadID); li >= 0 {
			lead = s.Leads[li]
		}
		return nil
	})
	if err != nil {
		return models.Invoice{}, models.Lead{}, false, err
	}
	return inv, lead, first, nil
}
