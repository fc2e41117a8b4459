package shock

import (
	"fmt"

	"github.com/rewired-gh/indexshock/internal/models"
)

// ScopeAll selects every loaded instrument.
const ScopeAll = "All"

// Aggregate computes the effects of every instrument and merges them into one table.
//
// With a specific scope the requested instrument is reported first. When
// includeAll is set, the effects of all instruments follow it, so the requested
// instrument appears twice; otherwise the table holds only that instrument.
func Aggregate(
	instruments []*models.Instrument,
	sets map[string]*models.ShockSet,
	engine *Engine,
	scope string,
	includeAll bool,
) (*models.EffectTable, error) {
	ids := make([]string, 0, len(instruments))
	effects := make(map[string][]models.EffectRecord, len(instruments))

	for _, inst := range instruments {
		ids = append(ids, inst.ID)

		if scope != ScopeAll && inst.ID != scope && !includeAll {
			continue
		}
		set, ok := sets[inst.ID]
		if !ok {
			return nil, &models.StageError{
				Stage:      models.StageAggregate,
				Instrument: inst.ID,
				Err:        fmt.Errorf("no shock set: %w", models.ErrInvalidArgument),
			}
		}
		records, err := engine.ComputeEffects(inst, set)
		if err != nil {
			return nil, err
		}
		effects[inst.ID] = records
	}

	return assemble(ids, effects, scope, includeAll)
}

// assemble orders per-instrument records into the final table.
func assemble(ids []string, effects map[string][]models.EffectRecord, scope string, includeAll bool) (*models.EffectTable, error) {
	table := models.NewEffectTable()

	if scope != ScopeAll {
		records, ok := effects[scope]
		if !ok {
			return nil, &models.StageError{
				Stage:      models.StageAggregate,
				Instrument: scope,
				Err:        fmt.Errorf("unknown instrument %q: %w", scope, models.ErrInvalidArgument),
			}
		}
		table.Append(records...)
		if !includeAll {
			return table, nil
		}
	}

	for _, id := range ids {
		table.Append(effects[id]...)
	}
	return table, nil
}
