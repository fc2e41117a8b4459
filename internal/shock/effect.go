package shock

import (
	"fmt"
	"sort"
	"time"

	"github.com/rewired-gh/indexshock/internal/models"
)

// DefaultMaxLookahead bounds the forward search for a usable price, in days.
const DefaultMaxLookahead = 31

// Engine measures forward returns after shocks.
type Engine struct {
	maxLookahead int
}

// NewEngine creates an Engine. A non-positive maxLookahead selects DefaultMaxLookahead.
func NewEngine(maxLookahead int) *Engine {
	if maxLookahead <= 0 {
		maxLookahead = DefaultMaxLookahead
	}
	return &Engine{maxLookahead: maxLookahead}
}

// MaxLookahead returns the forward search bound in days.
func (e *Engine) MaxLookahead() int {
	return e.maxLookahead
}

// ComputeEffects returns one record per shock date, in the order of set.Dates.
// The instrument must carry its change series.
func (e *Engine) ComputeEffects(inst *models.Instrument, set *models.ShockSet) ([]models.EffectRecord, error) {
	if len(inst.Changes) != len(inst.Points) {
		return nil, &models.StageError{
			Stage:      models.StageEffects,
			Instrument: inst.ID,
			Err:        fmt.Errorf("instrument has no change series: %w", models.ErrInvalidArgument),
		}
	}

	records := make([]models.EffectRecord, 0, len(set.Dates))
	for _, date := range set.Dates {
		record, err := e.effectsFor(inst, date)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (e *Engine) effectsFor(inst *models.Instrument, date time.Time) (models.EffectRecord, error) {
	fail := func(err error) (models.EffectRecord, error) {
		return models.EffectRecord{}, &models.StageError{
			Stage:      models.StageEffects,
			Instrument: inst.ID,
			Date:       date,
			Err:        err,
		}
	}

	idx, ok := inst.IndexOf(date)
	if !ok {
		return fail(fmt.Errorf("shock date not in series: %w", models.ErrDataLookup))
	}

	base := inst.Points[idx]
	if !base.Available() {
		return fail(fmt.Errorf("close on shock date is %v: %w", base.Close, models.ErrArithmetic))
	}

	record := models.EffectRecord{
		Index: inst.ID,
		Date:  date,
		Close: base.Close,
		Drop:  inst.Changes[idx].Change,
	}

	last := inst.LastDate()
	for n, h := range models.Horizons {
		target := date.AddDate(0, 0, h.Days)
		if target.After(last) {
			record.Effects[n] = models.Unavailable
			continue
		}

		price, err := e.priceFrom(inst, target)
		if err != nil {
			return fail(fmt.Errorf("horizon %s: %w", h.Label, err))
		}
		record.Effects[n] = models.Return((price - base.Close) / base.Close * 100)
	}

	return record, nil
}

// priceFrom returns the first usable close on or after target, looking at most
// maxLookahead days past target and never past the end of the series.
func (e *Engine) priceFrom(inst *models.Instrument, target time.Time) (float64, error) {
	limit := target.AddDate(0, 0, e.maxLookahead)
	if last := inst.LastDate(); last.Before(limit) {
		limit = last
	}

	start := sort.Search(len(inst.Points), func(k int) bool {
		return !inst.Points[k].Date.Before(target)
	})
	for k := start; k < len(inst.Points) && !inst.Points[k].Date.After(limit); k++ {
		if inst.Points[k].Available() {
			return inst.Points[k].Close, nil
		}
	}

	return 0, fmt.Errorf("no valid price between %s and %s: %w",
		target.Format(models.DateLayout), limit.Format(models.DateLayout), models.ErrDataLookup)
}
