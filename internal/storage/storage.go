// Package storage provides thread-safe in-memory storage of instrument price series.
// Series are loaded from a directory of CSV files, one file per instrument, and kept
// in discovery order so every report derived from the store is deterministic.
//
// The store owns its instrument records. Derived data such as the daily change
// series is attached through Enrich, which swaps in an enriched copy instead of
// mutating a record other goroutines may be reading.
package storage

import (
	"fmt"
	"math"
	"sync"

	"github.com/rewired-gh/indexshock/internal/models"
)

// Storage provides thread-safe in-memory storage of instruments
type Storage struct {
	instruments map[string]*models.Instrument
	order       []string
	mu          sync.RWMutex
}

// New creates an empty Storage instance
func New() *Storage {
	return &Storage{
		instruments: make(map[string]*models.Instrument),
		order:       make([]string, 0),
	}
}

// AddInstrument adds an instrument to storage. Instruments keep the order in
// which they were added.
func (s *Storage) AddInstrument(inst *models.Instrument) error {
	if err := inst.Validate(); err != nil {
		return fmt.Errorf("invalid instrument: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instruments[inst.ID]; exists {
		return fmt.Errorf("instrument already loaded: %s", inst.ID)
	}

	s.instruments[inst.ID] = inst
	s.order = append(s.order, inst.ID)
	return nil
}

// GetInstrument retrieves an instrument by ID
func (s *Storage) GetInstrument(id string) (*models.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, exists := s.instruments[id]
	if !exists {
		return nil, fmt.Errorf("instrument not found: %s: %w", id, models.ErrInvalidArgument)
	}
	return inst, nil
}

// Has reports whether an instrument is loaded.
func (s *Storage) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.instruments[id]
	return exists
}

// IDs returns instrument identifiers in discovery order
func (s *Storage) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Instruments returns all instruments in discovery order
func (s *Storage) Instruments() []*models.Instrument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Instrument, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.instruments[id])
	}
	return out
}

// Len returns the number of loaded instruments.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// Enrich attaches gap-filled closes and the daily change series to an instrument.
// Callers holding the previous record keep an unchanged value.
func (s *Storage) Enrich(id string, closes []float64, changes models.ChangeSeries) (*models.Instrument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, exists := s.instruments[id]
	if !exists {
		return nil, fmt.Errorf("instrument not found: %s: %w", id, models.ErrInvalidArgument)
	}

	enriched, err := inst.Enriched(closes, changes)
	if err != nil {
		return nil, err
	}

	s.instruments[id] = enriched
	return enriched, nil
}

// Summarize returns one row per instrument with its date range and price range.
// Missing prices are ignored; an instrument without any price reports NaN bounds.
func (s *Storage) Summarize() []models.SummaryRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]models.SummaryRow, 0, len(s.order))
	for _, id := range s.order {
		inst := s.instruments[id]

		lo, hi := math.NaN(), math.NaN()
		for _, p := range inst.Points {
			if math.IsNaN(p.Close) {
				continue
			}
			if math.IsNaN(lo) || p.Close < lo {
				lo = p.Close
			}
			if math.IsNaN(hi) || p.Close > hi {
				hi = p.Close
			}
		}

		rows = append(rows, models.SummaryRow{
			Index:        id,
			First:        inst.FirstDate(),
			Last:         inst.LastDate(),
			Min:          lo,
			Max:          hi,
			Observations: inst.Len(),
		})
	}
	return rows
}
