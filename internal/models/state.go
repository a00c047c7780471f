package models

// State is the whole object graph owned by the store. It is also the layout of
// the persisted JSON document.
type State struct {
	Leads        []Lead              `json:"leads"`
	Tours        []Tour              `json:"tours"`
	Bookings     []Booking           `json:"bookings"`
	Invoices     []Invoice           `json:"invoices"`
	Messages     []Message           `json:"messages"`
	Availability map[string][]string `json:"availability"`
}

// NewState returns an empty state with every collection allocated.
func NewState() State {
	return State{
		Leads:        []Lead{},
		Tours:        []Tour{},
		Bookings:     []Booking{},
		Invoices:     []Invoice{},
		Messages:     []Message{},
		Availability: map[string][]string{},
	}
}

// Clone returns a deep copy that shares no slices or maps with s.
func (s State) Clone() State {
	out := State{
		Leads:        append([]Lead{}, s.Leads...),
		Tours:        append([]Tour{}, s.Tours...),
		Bookings:     append([]Booking{}, s.Bookings...),
		Invoices:     make([]Invoice, 0, len(s.Invoices)),
		Messages:     append([]Message{}, s.Messages...),
		Availability: make(map[string][]string, len(s.Availability)),
	}
	for _, inv := range s.Invoices {
		out.Invoices = append(out.Invoices, inv.Clone())
	}
	for date, slots := range s.Availability {
		out.Availability[date] = append([]string{}, slots...)
	}
	return out
}

// Normalize replaces nil collections so the state always serializes as arrays and objects.
func (s *State) Normalize() {
	if s.Leads == nil {
		s.Leads = []Lead{}
	}
	if s.Tours == nil {
		s.Tours = []Tour{}
	}
	if s.Bookings == nil {
		s.Bookings = []Booking{}
	}
	if s.Invoices == nil {
		s.Invoices = []Invoice{}
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	if s.Availability == nil {
		s.Availability = map[string][]string{}
	}
}

// LeadByPhone returns the index of the first lead with phone, or -1.
func (s *State) LeadByPhone(phone string) int {
	for i, l := range s.Leads {
		if l.Phone == phone {
			return i
		}
	}
	return -1
}

// LeadByID returns the index of the lead with id, or -1.
func (s *State) LeadByID(id string) int {
	for i, l := range s.Leads {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// TourByID returns the index of the first tour with id, or -1.
func (s *State) TourByID(id string) int {
	for i, t := range s.Tours {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// BookingByID returns the index of the booking with id, or -1.
func (s *State) BookingByID(id string) int {
	for i, b := range s.Bookings {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// InvoiceByID returns the index of the invoice with id, or -1.
func (s *State) InvoiceByID(id string) int {
	for i, inv := range s.Invoices {
		if inv.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no line items or pointers with inv.
func (inv Invoice) Clone() Invoice {
	inv.LineItems = append([]LineItem{}, inv.LineItems...)
	if inv.PaidAt != nil {
		paidAt := *inv.PaidAt
		inv.PaidAt = &paidAt
	}
	if inv.Payer != nil {
		payer := *inv.Payer
		inv.Payer = &payer
	}
	return inv
}
