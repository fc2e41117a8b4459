package models

import (
	"errors"
	"math"
	"time"
)

// Selection modes derived from the percentile.
const (
	ModeCrash = "crash" // percentile <= 50: changes at or below the threshold
	ModeRally = "rally" // percentile > 50: changes strictly above the threshold
)

// ModeFor returns the selection mode used for percentile.
func ModeFor(percentile float64) string {
	if percentile <= 50 {
		return ModeCrash
	}
	return ModeRally
}

// ShockSet holds the extreme days of one instrument for one percentile.
type ShockSet struct {
	InstrumentID string      `json:"instrument_id"`
	Percentile   float64     `json:"percentile"`
	Sorted       []float64   `json:"sorted"`    // all defined changes, ascending
	Threshold    float64     `json:"threshold"` // NaN when Sorted is empty
	Dates        []time.Time `json:"dates"`     // chronological
}

// Mode returns ModeCrash or ModeRally.
func (s *ShockSet) Mode() string {
	return ModeFor(s.Percentile)
}

// Qualifies reports whether a change is extreme under the set's direction rule.
func (s *ShockSet) Qualifies(change float64) bool {
	if math.IsNaN(change) || math.IsNaN(s.Threshold) {
		return false
	}
	if s.Mode() == ModeCrash {
		return change <= s.Threshold
	}
	return change > s.Threshold
}

// Validate checks that all shock set fields are valid.
func (s *ShockSet) Validate() error {
	if s.InstrumentID == "" {
		return errors.New("instrument ID must not be empty")
	}
	if s.Percentile <= 0 || s.Percentile > 100 {
		return errors.New("percentile must be in (0, 100]")
	}
	for n := 1; n < len(s.Sorted); n++ {
		if s.Sorted[n] < s.Sorted[n-1] {
			return errors.New("sorted changes must be ascending")
		}
	}
	for n := 1; n < len(s.Dates); n++ {
		if !s.Dates[n].After(s.Dates[n-1]) {
			return errors.New("shock dates must be chronological")
		}
	}
	return nil
}
