// Package shock measures what happens to an index after an extreme day.
//
// The pipeline runs per instrument and then merges:
//
//	closes -> daily % change -> percentile threshold -> shock dates -> forward returns
//
// Forward returns are measured at six calendar horizons (1D, 1W, 4W, 12W, 26W, 52W).
// A horizon that lands on a day without a usable price moves forward to the next
// trading day with one, within a bounded lookahead.
//
// Use Analyzer.Prepare to run the whole pipeline over a Storage.
package shock

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/indexshock/internal/logger"
	"github.com/rewired-gh/indexshock/internal/models"
	"github.com/rewired-gh/indexshock/internal/storage"
)

// Options tune an Analyzer.
type Options struct {
	FillGaps     bool // interpolate missing closes and undefined changes
	IncludeAll   bool // append every instrument after a specific scope
	MaxLookahead int  // days; see NewEngine
	Workers      int  // concurrent instruments; <= 0 means 1
}

// DefaultOptions fills gaps, repeats every index after a specific scope and scans 31 days ahead.
func DefaultOptions() Options {
	return Options{
		FillGaps:     true,
		IncludeAll:   true,
		MaxLookahead: DefaultMaxLookahead,
		Workers:      4,
	}
}

// Analyzer runs the shock pipeline over the instruments of a Storage
type Analyzer struct {
	store  *storage.Storage
	opts   Options
	engine *Engine

	mu        sync.RWMutex
	shockSets map[string]*models.ShockSet
}

// NewAnalyzer creates a new Analyzer instance
func NewAnalyzer(store *storage.Storage, opts Options) *Analyzer {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Analyzer{
		store:     store,
		opts:      opts,
		engine:    NewEngine(opts.MaxLookahead),
		shockSets: make(map[string]*models.ShockSet),
	}
}

// Prepare returns the effect table for the given percentile and scope.
// scope is ScopeAll or the identifier of a loaded instrument.
// On failure no table is returned.
func (a *Analyzer) Prepare(ctx context.Context, percentile float64, scope string) (*models.EffectTable, error) {
	if scope != ScopeAll && !a.store.Has(scope) {
		return nil, fmt.Errorf("the specified index %q is not available in the data: %w", scope, models.ErrInvalidArgument)
	}
	if err := ValidatePercentile(percentile); err != nil {
		return nil, err
	}

	start := time.Now()
	ids := a.store.IDs()
	results := make([]*models.ShockSet, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set, err := a.analyze(id, percentile)
			if err != nil {
				return err
			}
			results[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Prepare failed (percentile=%.2f, scope=%s): %v", percentile, scope, err)
		return nil, err
	}

	sets := make(map[string]*models.ShockSet, len(ids))
	for i, id := range ids {
		sets[id] = results[i]
	}

	table, err := Aggregate(a.store.Instruments(), sets, a.engine, scope, a.opts.IncludeAll)
	if err != nil {
		logger.Error("Prepare failed (percentile=%.2f, scope=%s): %v", percentile, scope, err)
		return nil, err
	}

	a.mu.Lock()
	a.shockSets = sets
	a.mu.Unlock()

	logger.Info("Prepared %d effect rows for %d instruments (percentile=%.2f, scope=%s, lookahead=%dd) in %v",
		table.Len(), len(ids), percentile, scope, a.engine.MaxLookahead(), time.Since(start))
	return table, nil
}

// analyze computes the change series and shock set of one instrument and
// enriches the stored record with the changes.
func (a *Analyzer) analyze(id string, percentile float64) (*models.ShockSet, error) {
	inst, err := a.store.GetInstrument(id)
	if err != nil {
		return nil, err
	}

	closes, series, err := ComputeChanges(inst, a.opts.FillGaps)
	if err != nil {
		return nil, err
	}

	if _, err := a.store.Enrich(id, closes, series); err != nil {
		return nil, &models.StageError{Stage: models.StageChanges, Instrument: id, Err: err}
	}

	set, err := SelectShocks(id, series, percentile)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(set.Threshold) {
		logger.Warn("%s: no defined changes, nothing selected", id)
	}
	logger.Debug("%s: %d shocks at P%v=%.4f (%s mode)", id, len(set.Dates), percentile, set.Threshold, set.Mode())

	return set, nil
}

// ShockSets returns the shock sets of the last successful Prepare, keyed by instrument.
func (a *Analyzer) ShockSets() map[string]*models.ShockSet {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]*models.ShockSet, len(a.shockSets))
	for id, set := range a.shockSets {
		out[id] = set
	}
	return out
}

// Summarize returns the summary table of the underlying store.
func (a *Analyzer) Summarize() []models.SummaryRow {
	return a.store.Summarize()
}
