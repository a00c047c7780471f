package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateClone_IsDeep(t *testing.T) {
	paidAt := time.Now()
	src := NewState()
	src.Leads = append(src.Leads, Lead{ID: "lead_1", Status: LeadNew})
	src.Availability["2025-09-27"] = []string{"10:00", "13:00"}
	src.Invoices = append(src.Invoices, Invoice{
		ID:        "inv_1",
		LineItems: []LineItem{{ID: "li_1", Qty: 1, UnitPrice: decimal.NewFromInt(100)}},
		PaidAt:    &paidAt,
		Payer:     &Payer{Name: "Ava"},
	})

	cp := src.Clone()
	cp.Leads[0].Status = LeadBooked
	cp.Availability["2025-09-27"][0] = "changed"
	cp.Invoices[0].LineItems[0].Qty = 9
	cp.Invoices[0].Payer.Name = "Liam"

	assert.Equal(t, LeadNew, src.Leads[0].Status)
	assert.Equal(t, "10:00", src.Availability["2025-09-27"][0])
	assert.Equal(t, 1, src.Invoices[0].LineItems[0].Qty)
	assert.Equal(t, "Ava", src.Invoices[0].Payer.Name)
}

func TestStateNormalize_EmptyCollectionsSerializeAsArrays(t *testing.T) {
	var s State
	s.Normalize()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"leads":[],"tours":[],"bookings":[],"invoices":[],"messages":[],"availability":{}}`, string(data))
}

func TestStateLookups(t *testing.T) {
	s := NewState()
	s.Leads = []Lead{{ID: "lead_1", Phone: "+1"}, {ID: "lead_2", Phone: "+2"}}
	s.Tours = []Tour{{ID: "tour_1"}}
	s.Bookings = []Booking{{ID: "booking_1"}}
	s.Invoices = []Invoice{{ID: "inv_1"}}

	assert.Equal(t, 1, s.LeadByPhone("+2"))
	assert.Equal(t, -1, s.LeadByPhone("+3"))
	assert.Equal(t, 0, s.LeadByID("lead_1"))
	assert.Equal(t, 0, s.TourByID("tour_1"))
	assert.Equal(t, -1, s.TourByID("tour_2"))
	assert.Equal(t, 0, s.BookingByID("booking_1"))
	assert.Equal(t, 0, s.InvoiceByID("inv_1"))
}

func TestInvoiceMoneyMarshalsAsNumber(t *testing.T) {
	inv := Invoice{Total: decimal.NewFromInt(45750), BalanceDue: decimal.Zero}

	data, err := json.Marshal(inv)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(45750), decoded["total"])
	assert.Equal(t, float64(0), decoded["balanceDue"])
}
