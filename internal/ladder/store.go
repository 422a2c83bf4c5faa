package ladder

import (
	"sync"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
)

// Store owns one ladder. Every mutation goes through Apply, so the store
// has a single writer at a time; readers always get a copy.
type Store struct {
	mu    sync.RWMutex
	bands model.Ladder
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial model.Ladder) *Store {
	return &Store{bands: initial.Clone()}
}

// NewDefaultStore creates a store seeded with DefaultLadder.
func NewDefaultStore() *Store {
	return NewStore(DefaultLadder())
}

// GetAll returns the ordered bands.
func (s *Store) GetAll() model.Ladder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bands.Clone()
}

// Len returns the number of bands.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bands)
}

// Apply runs edit against the current ladder and keeps its result. When
// edit fails the ladder is left untouched and the error is returned with
// the current state.
func (s *Store) Apply(edit func(model.Ladder) (model.Ladder, error)) (model.Ladder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := edit(s.bands.Clone())
	if err != nil {
		return s.bands.Clone(), err
	}
	s.bands = next.Clone()
	return next, nil
}

// Replace discards the current ladder, e.g. after an external reload.
func (s *Store) Replace(l model.Ladder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bands = l.Clone()
}

// AddBand applies AddBand to the stored ladder.
func (s *Store) AddBand() model.Ladder {
	l, _ := s.Apply(func(l model.Ladder) (model.Ladder, error) {
		return AddBand(l), nil
	})
	return l
}

// RemoveBand applies RemoveBand to the stored ladder.
func (s *Store) RemoveBand(id string) (model.Ladder, error) {
	return s.Apply(func(l model.Ladder) (model.Ladder, error) {
		return RemoveBand(l, id)
	})
}

// UpdateBandField applies UpdateBandField to the stored ladder.
func (s *Store) UpdateBandField(id string, field model.Field, raw string) (model.Ladder, error) {
	return s.Apply(func(l model.Ladder) (model.Ladder, error) {
		return UpdateBandField(l, id, field, raw)
	})
}

// Validate runs Validate over the stored ladder.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Validate(s.bands)
}
