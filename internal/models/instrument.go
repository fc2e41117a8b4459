// Package models defines the core domain entities for indexshock.
// These models represent instrument price series, derived daily changes,
// selected shocks and the forward effects measured after them.
// All models include built-in validation to ensure data integrity throughout the application.
//
// Terminology:
//   - Instrument: one stock index, identified by the ticker in its source file name.
//   - Shock: a trading day whose percentage change lies beyond a percentile threshold.
//   - Horizon: a fixed calendar offset after a shock at which the return is measured.
package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// DateLayout is the layout of every date read from or written to a table.
const DateLayout = "2006-01-02"

// PricePoint is one trading day of an instrument.
// Close is NaN when the source had no price for the day.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Available reports whether the close can be used as a price.
// A zero close is treated as missing data.
func (p PricePoint) Available() bool {
	return !math.IsNaN(p.Close) && p.Close != 0
}

// Instrument is the ordered price history of one index.
// Points are strictly increasing by date. Changes is empty until the
// instrument has been enriched by the change calculator.
type Instrument struct {
	ID      string       `json:"id"`
	Source  string       `json:"source,omitempty"` // file the series was read from
	Points  []PricePoint `json:"points"`
	Changes ChangeSeries `json:"changes,omitempty"`
}

// Validate checks that all instrument fields are valid.
func (i *Instrument) Validate() error {
	if i.ID == "" {
		return errors.New("instrument ID must not be empty")
	}
	for n, p := range i.Points {
		if p.Date.IsZero() {
			return fmt.Errorf("row %d: date must be set", n)
		}
		if n > 0 && !p.Date.After(i.Points[n-1].Date) {
			return fmt.Errorf("row %d: date %s must be after %s",
				n, p.Date.Format(DateLayout), i.Points[n-1].Date.Format(DateLayout))
		}
		if math.IsInf(p.Close, 0) {
			return fmt.Errorf("row %d: close must be finite", n)
		}
		if p.Close < 0 {
			return fmt.Errorf("row %d: close %v must not be negative", n, p.Close)
		}
	}
	if len(i.Changes) > 0 && len(i.Changes) != len(i.Points) {
		return fmt.Errorf("change series has %d entries for %d prices", len(i.Changes), len(i.Points))
	}
	return nil
}

// Len returns the number of trading days.
func (i *Instrument) Len() int {
	return len(i.Points)
}

// FirstDate returns the earliest date, or the zero time for an empty series.
func (i *Instrument) FirstDate() time.Time {
	if len(i.Points) == 0 {
		return time.Time{}
	}
	return i.Points[0].Date
}

// LastDate returns the latest date, or the zero time for an empty series.
func (i *Instrument) LastDate() time.Time {
	if len(i.Points) == 0 {
		return time.Time{}
	}
	return i.Points[len(i.Points)-1].Date
}

// IndexOf returns the position of date in the series.
func (i *Instrument) IndexOf(date time.Time) (int, bool) {
	n := sort.Search(len(i.Points), func(k int) bool {
		return !i.Points[k].Date.Before(date)
	})
	if n < len(i.Points) && i.Points[n].Date.Equal(date) {
		return n, true
	}
	return -1, false
}

// Closes returns a copy of the close prices in date order.
func (i *Instrument) Closes() []float64 {
	closes := make([]float64, len(i.Points))
	for n, p := range i.Points {
		closes[n] = p.Close
	}
	return closes
}

// Enriched returns a copy of the instrument carrying the given closes and
// change series. The receiver is left untouched.
func (i *Instrument) Enriched(closes []float64, changes ChangeSeries) (*Instrument, error) {
	if len(closes) != len(i.Points) {
		return nil, fmt.Errorf("got %d closes for %d prices", len(closes), len(i.Points))
	}
	out := &Instrument{
		ID:      i.ID,
		Source:  i.Source,
		Points:  make([]PricePoint, len(i.Points)),
		Changes: changes,
	}
	for n, p := range i.Points {
		out.Points[n] = PricePoint{Date: p.Date, Close: closes[n]}
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid enrichment for %s: %w", i.ID, err)
	}
	return out, nil
}
