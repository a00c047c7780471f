package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes over the wire as a bare JSON number.
	decimal.MarshalJSONWithoutQuotes = true
}

// Invoice is issued against a booking and paid in full in one step
type Invoice struct {
	ID         string          `json:"id"`
	BookingID  string          `json:"bookingId"`
	LeadID     string          `json:"leadId"`
	IssueDate  time.Time       `json:"issueDate"`
	DueDate    time.Time       `json:"dueDate"`
	LineItems  []LineItem      `json:"lineItems"`
	Currency   string          `json:"currency"`
	Status     InvoiceStatus   `json:"status"`
	Total      decimal.Decimal `json:"total"`
	BalanceDue decimal.Decimal `json:"balanceDue"`
	PaidAt     *time.Time      `json:"paidAt,omitempty"`
	Payer      *Payer          `json:"payer,omitempty"`
}

// LineItem is one row of an invoice
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Qty         int             `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Payer holds the optional contact details submitted with a payment
type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// IsZero reports whether no payer field was supplied.
func (p Payer) IsZero() bool {
	return p.Name == "" && p.Email == "" && p.Phone == ""
}

type InvoiceStatus string

const (
	InvoiceSent InvoiceStatus = "sent"
	InvoicePaid InvoiceStatus = "paid"
)

// CurrencyUSD is the only currency invoices are issued in.
const CurrencyUSD = "USD"
