package storage

import (
	"time"

	"venue-crm/internal/datetime"
	"venue-crm/internal/models"
)

// SeedSlots are the tour times offered on every seeded date.
var SeedSlots = []string{"10:00", "11:30", "13:00", "16:30"}

// seedDayOffsets are the days from today that get availability.
var seedDayOffsets = []int{0, 1, 2, 3, 7}

// Seed IDs, stable across resets.
const (
	SeedLeadOneID = "lead_1"
	SeedLeadTwoID = "lead_2"
	DemoLeadID    = "lead_demo"
)

// Seed builds the starting state: two sample leads, a demo lead on demoPhone,
// near-future availability and empty tours, bookings, invoices and messages.
func Seed(now time.Time, demoPhone string) models.State {
	state := models.NewState()

	state.Leads = []models.Lead{
		models.NewLead(SeedLeadOneID, "Sophia & Daniel", "+15555550101", "sophia@example.com",
			"website", models.LeadNew, now.Add(-48*time.Hour)),
		models.NewLead(SeedLeadTwoID, "Olivia & Ethan", "+15555550102", "olivia@example.com",
			"instagram", models.LeadNew, now.Add(-24*time.Hour)),
		models.NewLead(DemoLeadID, "Emma & Noah", demoPhone, "",
			"demo", models.LeadNew, now),
	}

	for _, offset := range seedDayOffsets {
		date := datetime.FormatDate(now.AddDate(0, 0, offset))
		state.Availability[date] = append([]string{}, SeedSlots...)
	}

	return state
}
