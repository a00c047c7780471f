package models

import "time"

// Lead represents a prospective client who has contacted the venue
type Lead struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email,omitempty"`
	Source       string     `json:"source"`
	Status       LeadStatus `json:"status"`
	EventType    string     `json:"eventType"`
	GuestCount   int        `json:"guestCount"`
	CateringType string     `json:"cateringType"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LeadStatus represents how far a lead has progressed through the funnel
type LeadStatus string

const (
	LeadNew    LeadStatus = "new"
	LeadToured LeadStatus = "toured"
	LeadBooked LeadStatus = "booked"
)

// Fixed lead defaults for the demo venue.
const (
	DefaultEventType    = "Wedding"
	DefaultGuestCount   = 75
	DefaultCateringType = "outside"
)

// NewLead builds a lead carrying the venue defaults.
func NewLead(id, name, phone, email, source string, status LeadStatus, createdAt time.Time) Lead {
	return Lead{
		ID:           id,
		Name:         name,
		Phone:        phone,
		Email:        email,
		Source:       source,
		Status:       status,
		EventType:    DefaultEventType,
		GuestCount:   DefaultGuestCount,
		CateringType: DefaultCateringType,
		CreatedAt:    createdAt,
	}
}
