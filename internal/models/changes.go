package models

import (
	"errors"
	"math"
	"time"
)

// ChangePoint is the percentage change of the close on Date relative to the
// previous trading day. Change is NaN while undefined.
type ChangePoint struct {
	Date   time.Time `json:"date"`
	Change float64   `json:"change"`
}

// ChangeSeries is aligned one-to-one with an instrument's price points.
type ChangeSeries []ChangePoint

// Validate checks the series invariants.
func (s ChangeSeries) Validate() error {
	if len(s) == 0 {
		return nil
	}
	if s[0].Change != 0 && !math.IsNaN(s[0].Change) {
		return errors.New("first change must be 0 or undefined")
	}
	for n := 1; n < len(s); n++ {
		if !s[n].Date.After(s[n-1].Date) {
			return errors.New("change dates must be strictly increasing")
		}
		if math.IsInf(s[n].Change, 0) {
			return errors.New("change must not be infinite")
		}
	}
	return nil
}

// Values returns the changes in date order.
func (s ChangeSeries) Values() []float64 {
	values := make([]float64, len(s))
	for n, c := range s {
		values[n] = c.Change
	}
	return values
}

// Finite returns the defined changes in date order.
func (s ChangeSeries) Finite() []float64 {
	values := make([]float64, 0, len(s))
	for _, c := range s {
		if !math.IsNaN(c.Change) && !math.IsInf(c.Change, 0) {
			values = append(values, c.Change)
		}
	}
	return values
}
