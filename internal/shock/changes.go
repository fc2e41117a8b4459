package shock

import (
	"fmt"
	"math"

	"github.com/rewired-gh/indexshock/internal/models"
)

// ComputeChanges derives the daily percentage change series of an instrument.
//
// A zero close means the price is unavailable, the same as a missing one. With
// fillGaps set, unavailable closes are interpolated first, and any change that is
// still undefined afterwards is interpolated from its neighbours. Without it, a
// change into an unavailable close is undefined and a change out of a zero close
// is an ErrArithmetic failure. A change next to a close that is still unavailable
// stays undefined in both modes, so a day without a price is never a shock.
// The returned closes are the ones the changes were computed from.
func ComputeChanges(inst *models.Instrument, fillGaps bool) ([]float64, models.ChangeSeries, error) {
	closes := inst.Closes()
	if fillGaps {
		for i, c := range closes {
			if c == 0 {
				closes[i] = math.NaN()
			}
		}
		interpolateLinear(closes)
	}

	series := make(models.ChangeSeries, len(closes))
	for i := range closes {
		series[i].Date = inst.Points[i].Date
		if i == 0 {
			continue
		}

		prev := closes[i-1]
		if prev == 0 {
			return nil, nil, &models.StageError{
				Stage:      models.StageChanges,
				Instrument: inst.ID,
				Date:       inst.Points[i].Date,
				Err: fmt.Errorf("previous close on %s is zero: %w",
					inst.Points[i-1].Date.Format(models.DateLayout), models.ErrArithmetic),
			}
		}
		series[i].Change = (closes[i] - prev) / prev * 100
	}

	if fillGaps && len(series) > 0 {
		values := series.Values()
		interpolateLinear(values)
		for i := range series {
			series[i].Change = values[i]
		}
	}

	for i := range closes {
		if !usable(closes[i]) || (i > 0 && !usable(closes[i-1])) {
			series[i].Change = math.NaN()
		}
	}

	return closes, series, nil
}

func usable(c float64) bool {
	return !math.IsNaN(c) && c != 0
}

// interpolateLinear fills NaN values in place by position. Interior gaps are
// interpolated between their neighbours, trailing gaps repeat the last value
// and leading gaps are left alone.
func interpolateLinear(values []float64) {
	last := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if last >= 0 && i-last > 1 {
			span := float64(i - last)
			for k := last + 1; k < i; k++ {
				values[k] = values[last] + (v-values[last])*float64(k-last)/span
			}
		}
		last = i
	}
	if last < 0 {
		return
	}
	for k := last + 1; k < len(values); k++ {
		values[k] = values[last]
	}
}
