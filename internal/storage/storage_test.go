package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crm/internal/apperror"
	"venue-crm/internal/models"
)

var fixedNow = time.Date(2025, 9, 26, 9, 0, 0, 0, time.UTC)

func newOptions(persistent bool, file string) Options {
	return Options{
		Persistent: persistent,
		File:       file,
		DemoPhone:  "+15551234567",
		Now:        func() time.Time { return fixedNow },
		Logger:     zerolog.Nop(),
	}
}

func TestSeed(t *testing.T) {
	state := Seed(fixedNow, "+15550009999")

	require.Len(t, state.Leads, 3)
	assert.Equal(t, SeedLeadOneID, state.Leads[0].ID)
	assert.Equal(t, SeedLeadTwoID, state.Leads[1].ID)
	assert.Equal(t, DemoLeadID, state.Leads[2].ID)
	assert.Equal(t, "+15550009999", state.Leads[2].Phone)

	assert.Len(t, state.Availability, 5)
	for _, date := range []string{"2025-09-26", "2025-09-27", "2025-09-28", "2025-09-29", "2025-10-03"} {
		assert.Equal(t, SeedSlots, state.Availability[date], date)
	}

	assert.Empty(t, state.Tours)
	assert.Empty(t, state.Bookings)
	assert.Empty(t, state.Invoices)
	assert.Empty(t, state.Messages)
}

func TestMemoryStorage_SnapshotIsCopy(t *testing.T) {
	s, err := NewStorage(newOptions(false, ""))
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Leads[0].Status = models.LeadBooked
	snap.Availability["2025-09-27"] = nil

	fresh := s.Snapshot()
	assert.Equal(t, models.LeadNew, fresh.Leads[0].Status)
	assert.Equal(t, SeedSlots, fresh.Availability["2025-09-27"])
}

func TestMutate_CommitsOnSuccess(t *testing.T) {
	s, err := NewStorage(newOptions(false, ""))
	require.NoError(t, err)

	err = s.Mutate(func(st *models.State) error {
		st.Tours = append(st.Tours, models.Tour{ID: "tour_1"})
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, s.Snapshot().Tours, 1)
}

func TestMutate_RollsBackOnError(t *testing.T) {
	s, err := NewStorage(newOptions(false, ""))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Mutate(func(st *models.State) error {
		st.Tours = append(st.Tours, models.Tour{ID: "tour_1"})
		st.Leads[0].Status = models.LeadToured
		return boom
	})
	assert.ErrorIs(t, err, boom)

	snap := s.Snapshot()
	assert.Empty(t, snap.Tours)
	assert.Equal(t, models.LeadNew, snap.Leads[0].Status)
}

func TestJSONStorage_SeedsAndReloads(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := NewStorage(newOptions(true, file))
	require.NoError(t, err)
	require.FileExists(t, file)

	err = s.Mutate(func(st *models.State) error {
		st.Messages = append(st.Messages, models.Message{ID: "msg_1", Direction: models.DirectionOut, Text: "hi"})
		return nil
	})
	require.NoError(t, err)
	assert.NoFileExists(t, file+".tmp")

	reloaded, err := NewStorage(newOptions(true, file))
	require.NoError(t, err)

	snap := reloaded.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "hi", snap.Messages[0].Text)
	assert.Len(t, snap.Leads, 3)
}

func TestJSONStorage_WritesExpectedLayout(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")

	_, err := NewStorage(newOptions(true, file))
	require.NoError(t, err)

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"leads", "tours", "bookings", "invoices", "messages", "availability"} {
		assert.Contains(t, doc, key)
	}
	assert.JSONEq(t, `[]`, string(doc["tours"]))
}

func TestJSONStorage_CorruptFileIsReseeded(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "{not json"},
		{"array", "[1,2,3]"},
		{"null", "null"},
		{"wrong shape", `{"leads": "nope"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(file, []byte(tc.content), 0644))

			s, err := NewStorage(newOptions(true, file))
			require.NoError(t, err)
			assert.Len(t, s.Snapshot().Leads, 3)

			data, err := os.ReadFile(file)
			require.NoError(t, err)
			var reread models.State
			require.NoError(t, json.Unmarshal(data, &reread))
			assert.Len(t, reread.Leads, 3)
		})
	}
}

func TestJSONStorage_SaveFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(newOptions(true, filepath.Join(dir, "state.json")))
	require.NoError(t, err)

	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	s.file = filepath.Join(blocker, "state.json")

	err = s.Mutate(func(st *models.State) error {
		st.Tours = append(st.Tours, models.Tour{ID: "tour_1"})
		return nil
	})

	var persistErr *apperror.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Empty(t, s.Snapshot().Tours)
}

func TestReset(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.json")
	s, err := NewStorage(newOptions(true, file))
	require.NoError(t, err)

	require.NoError(t, s.Mutate(func(st *models.State) error {
		st.Leads = append([]models.Lead{{ID: "lead_x"}}, st.Leads...)
		st.Bookings = append(st.Bookings, models.Booking{ID: "booking_1"})
		return nil
	}))

	state, err := s.Reset()
	require.NoError(t, err)
	assert.Len(t, state.Leads, 3)
	assert.Empty(t, state.Bookings)

	reloaded, err := NewStorage(newOptions(true, file))
	require.NoError(t, err)
	assert.Empty(t, reloaded.Snapshot().Bookings)
}

func TestNewStorage_PersistentNeedsFile(t *testing.T) {
	_, err := NewStorage(newOptions(true, ""))
	assert.Error(t, err)
}
