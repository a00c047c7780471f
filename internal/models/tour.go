package models

import "time"

// Tour is a scheduled venue visit. LeadName is a snapshot taken at booking time.
type Tour struct {
	ID        string     `json:"id"`
	LeadID    string     `json:"leadId"`
	LeadName  string     `json:"leadName"`
	Date      string     `json:"date"`
	Time      string     `json:"time"`
	Status    TourStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

type TourStatus string

const TourScheduled TourStatus = "scheduled"

// Booking is a confirmed event reservation converted from a tour
type Booking struct {
	ID        string        `json:"id"`
	TourID    string        `json:"tourId"`
	LeadID    string        `json:"leadId"`
	LeadName  string        `json:"leadName"`
	Date      string        `json:"date"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

type BookingStatus string

const BookingConfirmed BookingStatus = "confirmed"
