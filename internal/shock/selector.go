package shock

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rewired-gh/indexshock/internal/models"
)

// ValidatePercentile checks that p lies in (0, 100].
func ValidatePercentile(p float64) error {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return fmt.Errorf("percentile %v must be in the interval (0, 100]: %w", p, models.ErrInvalidArgument)
	}
	return nil
}

// Percentile returns the p-th percentile of ascending values using linear
// interpolation between the two closest ranks. It returns NaN for no values.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	// Interpolate from the nearer end to keep results monotonic in p.
	weight := index - float64(lower)
	diff := sorted[upper] - sorted[lower]
	if weight >= 0.5 {
		return sorted[upper] - diff*(1-weight)
	}
	return sorted[lower] + diff*weight
}

// SelectShocks picks the extreme days of a change series.
//
// For percentile <= 50 a day is a shock when its change is at or below the
// threshold; above 50 it must be strictly greater. Undefined changes are
// ignored both for the threshold and for selection.
func SelectShocks(id string, series models.ChangeSeries, percentile float64) (*models.ShockSet, error) {
	if err := ValidatePercentile(percentile); err != nil {
		return nil, &models.StageError{Stage: models.StageSelect, Instrument: id, Err: err}
	}

	sorted := series.Finite()
	sort.Float64s(sorted)

	set := &models.ShockSet{
		InstrumentID: id,
		Percentile:   percentile,
		Sorted:       sorted,
		Threshold:    Percentile(sorted, percentile),
		Dates:        []time.Time{},
	}

	for _, c := range series {
		if set.Qualifies(c.Change) {
			set.Dates = append(set.Dates, c.Date)
		}
	}
	return set, nil
}
