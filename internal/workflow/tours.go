package workflow

import (
	"context"
	"strings"

	"venue-crm/internal/apperror"
	"venue-crm/internal/datetime"
	"venue-crm/internal/models"
	"venue-crm/internal/notify"
)

type BookInput struct {
	Phone string
	Date  string
	Time  string
}

// BookTour schedules a tour for the lead with in.Phone, creating the lead if
// needed, and consumes the matching availability slot.
func (e *Engine) BookTour(ctx context.Context, in BookInput) (models.Tour, error) {
	tour, lead, err := e.bookTour(in)
	e.metrics.Transition("book_tour", err)
	if err != nil {
		return models.Tour{}, err
	}

	e.log.Info().
		Str("tour_id", tour.ID).
		Str("lead_id", tour.LeadID).
		Str("date", tour.Date).
		Str("time", tour.Time).
		Msg("Tour booked")
	e.send(ctx, notify.Notification{
		Name:    lead.Name,
		Phone:   lead.Phone,
		Email:   lead.Email,
		Subject: "Your tour of " + e.opts.VenueName,
		Text:    tourConfirmationText(tour.Date, tour.Time, e.opts.VenueName),
	})
	return tour, nil
}

func (e *Engine) bookTour(in BookInput) (models.Tour, models.Lead, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return models.Tour{}, models.Lead{}, apperror.Validation("phone is required")
	}
	date, ok := datetime.ParseDate(in.Date, e.now())
	if !ok {
		return models.Tour{}, models.Lead{}, apperror.Validation("invalid date: use today, tomorrow or YYYY-MM-DD")
	}
	clock, ok := datetime.ParseTime(in.Time)
	if !ok {
		return models.Tour{}, models.Lead{}, apperror.Validation("invalid time: use a time like 1pm, 1:30pm or 13:30")
	}
	raw := strings.TrimSpace(in.Time)

	var (
		tour models.Tour
		lead models.Lead
	)
	err := e.store.Mutate(func(s *models.State) error {
		if !takeSlot(s.Availability, date, raw, clock) && e.opts.StrictAvailability {
			return apperror.Conflict("no tour slot at %s on %s", datetime.Format12h(clock), date)
		}

		idx := s.LeadByPhone(phone)
		if idx < 0 {
			s.Leads = append([]models.Lead{
				models.NewLead(e.newID("lead"), defaultLeadName, phone, "", SourceTourRequest, models.LeadNew, e.now()),
			}, s.Leads...)
			idx = 0
		}
		s.Leads[idx].Status = models.LeadToured
		lead = s.Leads[idx]

		tour = models.Tour{
			ID:        e.newID("tour"),
			LeadID:    lead.ID,
			LeadName:  lead.Name,
			Date:      date,
			Time:      clock,
			Status:    models.TourScheduled,
			CreatedAt: e.now(),
		}
		s.Tours = append([]models.Tour{tour}, s.Tours...)
		s.Messages = append(s.Messages, e.outbound(phone, tourConfirmationText(date, clock, e.opts.VenueName)))
		return nil
	})
	if err != nil {
		return models.Tour{}, models.Lead{}, err
	}
	return tour, lead, nil
}

// takeSlot removes the first slot on date that matches the requested time,
// either as typed, in canonical form, or after normalizing the stored slot.
// It reports whether a slot was removed. A date with no entry is left absent.
func takeSlot(availability map[string][]string, date, raw, canonical string) bool {
	slots, ok := availability[date]
	if !ok {
		return false
	}
	for i, slot := range slots {
		if slot == raw || slot == canonical || normalizedSlot(slot) == canonical {
			availability[date] = append(slots[:i:i], slots[i+1:]...)
			return true
		}
	}
	return false
}

func normalizedSlot(slot string) string {
	clock, ok := datetime.ParseTime(slot)
	if !ok {
		return ""
	}
	return clock
}

// ConfirmEvent converts a scheduled tour into a confirmed booking for eventDate.
// The tour is removed; the lead is marked booked.
func (e *Engine) ConfirmEvent(ctx context.Context, tourID, eventDate string) (models.Booking, error) {
	booking, lead, err := e.confirmEvent(strings.TrimSpace(tourID), strings.TrimSpace(eventDate))
	e.metrics.Transition("confirm_event", err)
	if err != nil {
		return models.Booking{}, err
	}

	e.log.Info().
		Str("booking_id", booking.ID).
		Str("tour_id", booking.TourID).
		Str("date", booking.Date).
		Msg("Event confirmed")
	e.send(ctx, notify.Notification{
		Name:    lead.Name,
		Phone:   lead.Phone,
		Email:   lead.Email,
		Subject: "Your date at " + e.opts.VenueName + " is reserved",
		Text:    eventConfirmationText(booking.Date, e.opts.VenueName),
	})
	return booking, nil
}

func (e *Engine) confirmEvent(tourID, eventDate string) (models.Booking, models.Lead, error) {
	if tourID == "" {
		return models.Booking{}, models.Lead{}, apperror.Validation("tourId is required")
	}
	if !datetime.IsISODate(eventDate) {
		return models.Booking{}, models.Lead{}, apperror.Validation("eventDate must be YYYY-MM-DD")
	}

	var (
		booking models.Booking
		lead    models.Lead
	)
	err := e.store.Mutate(func(s *models.State) error {
		ti := s.TourByID(tourID)
		if ti < 0 {
			return apperror.NotFound("tour", tourID)
		}
		tour := s.Tours[ti]
		s.Tours = append(s.Tours[:ti:ti], s.Tours[ti+1:]...)

		li := s.LeadByID(tour.LeadID)
		if li < 0 {
			name := tour.LeadName
			if name == "" {
				name = defaultLeadName
			}
			s.Leads = append([]models.Lead{
				models.NewLead(tour.LeadID, name, "", "", SourceTourRequest, models.LeadBooked, e.now()),
			}, s.Leads...)
			li = 0
		}
		s.Leads[li].Status = models.LeadBooked
		lead = s.Leads[li]

		booking = models.Booking{
			ID:        e.newID("booking"),
			TourID:    tour.ID,
			LeadID:    tour.LeadID,
			LeadName:  tour.LeadName,
			Date:      eventDate,
			Status:    models.BookingConfirmed,
			CreatedAt: e.now(),
		}
		s.Bookings = append([]models.Booking{booking}, s.Bookings...)
		if lead.Phone != "" {
			s.Messages = append(s.Messages, e.outbound(lead.Phone, eventConfirmationText(eventDate, e.opts.VenueName)))
		}
		return nil
	})
	if err != nil {
		return models.Booking{}, models.Lead{}, err
	}
	return booking, lead, nil
}

// Availability returns the open slots for date. A missing or unparsable date
// means today. The returned slice is never nil.
func (e *Engine) Availability(date string) (string, []string) {
	now := e.now()
	parsed, ok := datetime.ParseDate(date, now)
	if !ok {
		parsed = datetime.FormatDate(now)
	}

	state := e.store.Snapshot()
	slots := state.Availability[parsed]
	if slots == nil {
		slots = []string{}
	}
	return parsed, slots
}
