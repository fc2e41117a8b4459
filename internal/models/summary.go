package models

import (
	"errors"
	"time"
)

// SummaryColumns is the column order of a summary table.
var SummaryColumns = []string{"Index", "First", "Last", "Min", "Max", "Observations"}

// SummaryRow describes the available data of one instrument.
type SummaryRow struct {
	Index        string    `json:"index"`
	First        time.Time `json:"first"`
	Last         time.Time `json:"last"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	Observations int       `json:"observations"`
}

// Validate checks that all summary fields are valid
func (s *SummaryRow) Validate() error {
	if s.Index == "" {
		return errors.New("summary index must not be empty")
	}
	if s.Last.Before(s.First) {
		return errors.New("last date must not be before first date")
	}
	if s.Max < s.Min {
		return errors.New("max must be >= min")
	}
	return nil
}
