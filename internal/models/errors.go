package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds. Match them with errors.Is.
var (
	ErrDataSource      = errors.New("data source error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrArithmetic      = errors.New("arithmetic error")
	ErrDataLookup      = errors.New("data lookup error")
)

// Pipeline stages reported in a StageError.
const (
	StageLoad      = "load"
	StageChanges   = "changes"
	StageSelect    = "select"
	StageEffects   = "effects"
	StageAggregate = "aggregate"
)

// StageError identifies where in the pipeline a failure happened.
type StageError struct {
	Stage      string
	Instrument string
	Date       time.Time // zero when the failure is not tied to a date
	Err        error
}

func (e *StageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s stage failed", e.Stage)
	if e.Instrument != "" {
		fmt.Fprintf(&b, " for %s", e.Instrument)
	}
	if !e.Date.IsZero() {
		fmt.Fprintf(&b, " on %s", e.Date.Format(DateLayout))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
