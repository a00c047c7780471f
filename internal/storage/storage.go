package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"venue-crm/internal/apperror"
	"venue-crm/internal/models"
)

// Options configures a Storage.
type Options struct {
	// Persistent backs the state with File. Otherwise state lives only in memory.
	Persistent bool
	File       string
	// DemoPhone is the phone number given to the seeded demo lead.
	DemoPhone string
	Now       func() time.Time
	Logger    zerolog.Logger
}

// Storage owns the CRM state. Callers read copies and change it only through Mutate.
type Storage struct {
	mu    sync.RWMutex
	state models.State

	persistent bool
	file       string
	demoPhone  string
	now        func() time.Time
	log        zerolog.Logger
}

// NewStorage creates a new storage instance, loading the state file in persistent mode
func NewStorage(opts Options) (*Storage, error) {
	s := &Storage{
		persistent: opts.Persistent,
		file:       opts.File,
		demoPhone:  opts.DemoPhone,
		now:        opts.Now,
		log:        opts.Logger.With().Str("component", "storage").Logger(),
	}
	if s.now == nil {
		s.now = time.Now
	}

	if !s.persistent {
		s.state = Seed(s.now(), s.demoPhone)
		return s, nil
	}
	if s.file == "" {
		return nil, fmt.Errorf("persistent storage needs a file path")
	}

	state, ok, err := s.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage: %w", err)
	}
	if ok {
		s.state = state
		s.log.Info().Str("file", s.file).Int("leads", len(state.Leads)).Msg("Loaded state")
		return s, nil
	}

	s.state = Seed(s.now(), s.demoPhone)
	if err := s.save(s.state); err != nil {
		return nil, fmt.Errorf("failed to write seed state: %w", err)
	}
	s.log.Info().Str("file", s.file).Msg("Seeded new state file")
	return s, nil
}

// Snapshot returns a deep copy of the current state
func (s *Storage) Snapshot() models.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.Clone()
}

// Mutate runs fn against a copy of the state and commits the copy only if fn
// succeeds and, in persistent mode, the copy was written to disk.
func (s *Storage) Mutate(fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.Normalize()

	if err := s.save(next); err != nil {
		return apperror.Persistence(err)
	}
	s.state = next
	return nil
}

// Reset discards the current state and replaces it with a fresh seed
func (s *Storage) Reset() (models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed := Seed(s.now(), s.demoPhone)
	if err := s.save(seed); err != nil {
		return models.State{}, apperror.Persistence(err)
	}
	s.state = seed
	return seed.Clone(), nil
}

// save writes state next to the target and renames it into place. It is a
// no-op in memory mode.
func (s *Storage) save(state models.State) error {
	if !s.persistent {
		return nil
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// load reads the state file. ok is false when the file is missing or does not
// hold a JSON object; the caller then reseeds.
func (s *Storage) load() (models.State, bool, error) {
	data, err := os.ReadFile(s.file)
	if errors.Is(err, fs.ErrNotExist) {
		return models.State{}, false, nil
	}
	if err != nil {
		return models.State{}, false, fmt.Errorf("failed to read file: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil || probe == nil {
		s.log.Warn().Err(err).Str("file", s.file).Msg("State file is not a JSON object, reseeding")
		return models.State{}, false, nil
	}

	var state models.State
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn().Err(err).Str("file", s.file).Msg("State file does not match the expected layout, reseeding")
		return models.State{}, false, nil
	}
	state.Normalize()
	return state, true, nil
}
