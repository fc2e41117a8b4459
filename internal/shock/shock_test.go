package shock

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/indexshock/internal/models"
)

const tolerance = 1e-9

var epoch = time.Date(2000, 1, 3, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return epoch.AddDate(0, 0, n)
}

// series builds an instrument with one close per calendar day starting at epoch.
func series(id string, closes ...float64) *models.Instrument {
	inst := &models.Instrument{ID: id, Points: make([]models.PricePoint, len(closes))}
	for i, c := range closes {
		inst.Points[i] = models.PricePoint{Date: day(i), Close: c}
	}
	return inst
}

// enrich attaches gap-filled closes and changes the way the analyzer does.
func enrich(t *testing.T, inst *models.Instrument) *models.Instrument {
	t.Helper()
	closes, changes, err := ComputeChanges(inst, true)
	require.NoError(t, err)
	out, err := inst.Enriched(closes, changes)
	require.NoError(t, err)
	return out
}

// withChanges attaches the change series but keeps the raw closes, so zero and
// missing prices stay visible to the forward lookup.
func withChanges(t *testing.T, inst *models.Instrument) *models.Instrument {
	t.Helper()
	_, changes, err := ComputeChanges(inst, true)
	require.NoError(t, err)
	out, err := inst.Enriched(inst.Closes(), changes)
	require.NoError(t, err)
	return out
}

// walk returns n closes starting at start, alternating small up and down moves.
func walk(start float64, n int) []float64 {
	closes := make([]float64, n)
	closes[0] = start
	for i := 1; i < n; i++ {
		step := 0.004 + 0.001*float64(i%5)
		if i%2 == 0 {
			step = -step / 2
		}
		closes[i] = closes[i-1] * (1 + step)
	}
	return closes
}

// ─── ChangeCalculator ────────────────────────────────────────────────────────

func TestComputeChanges(t *testing.T) {
	inst := series("AAA", walk(100, 50)...)

	closes, changes, err := ComputeChanges(inst, true)
	require.NoError(t, err)
	require.Len(t, changes, 50)
	require.NoError(t, changes.Validate())

	assert.Equal(t, 0.0, changes[0].Change)
	for i := 1; i < len(changes); i++ {
		want := (closes[i] - closes[i-1]) / closes[i-1] * 100
		assert.InDelta(t, want, changes[i].Change, tolerance, "change %d", i)
		assert.True(t, changes[i].Date.Equal(inst.Points[i].Date))
	}
}

func TestComputeChangesFillsGaps(t *testing.T) {
	inst := series("AAA", 100, math.NaN(), 110, math.NaN())

	closes, changes, err := ComputeChanges(inst, true)
	require.NoError(t, err)

	assert.Equal(t, []float64{100, 105, 110, 110}, closes)
	assert.InDelta(t, 5.0, changes[1].Change, tolerance)
	assert.InDelta(t, 100.0*5/105, changes[2].Change, tolerance)
	assert.Equal(t, 0.0, changes[3].Change)
	assert.True(t, math.IsNaN(inst.Points[1].Close), "input instrument is not modified")
}

func TestComputeChangesWithoutGapFilling(t *testing.T) {
	inst := series("AAA", 100, math.NaN(), 110)

	_, changes, err := ComputeChanges(inst, false)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(changes[1].Change))
	assert.True(t, math.IsNaN(changes[2].Change))
}

func TestComputeChangesZeroPreviousClose(t *testing.T) {
	inst := series("AAA", 100, 0, 100, 110)

	_, _, err := ComputeChanges(inst, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrArithmetic)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageChanges, stageErr.Stage)
	assert.Equal(t, "AAA", stageErr.Instrument)
	assert.True(t, stageErr.Date.Equal(day(2)))
}

func TestComputeChangesZeroCloseIsAGap(t *testing.T) {
	inst := series("AAA", 100, 0, 110, 0)

	closes, changes, err := ComputeChanges(inst, true)
	require.NoError(t, err)
	require.NoError(t, changes.Validate())

	assert.Equal(t, []float64{100, 105, 110, 110}, closes)
	assert.InDelta(t, 5.0, changes[1].Change, tolerance, "change into the zero close is interpolated")
	assert.InDelta(t, 100.0*5/105, changes[2].Change, tolerance)
	assert.Equal(t, 0.0, changes[3].Change)
	assert.Equal(t, 0.0, inst.Points[1].Close, "input instrument is not modified")
}

func TestComputeChangesZeroCloseWithoutGapFilling(t *testing.T) {
	inst := series("AAA", 100, 90, 0)

	_, changes, err := ComputeChanges(inst, false)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, changes[1].Change, tolerance)
	assert.True(t, math.IsNaN(changes[2].Change), "change into a zero close is undefined")

	set, err := SelectShocks("AAA", changes, 5)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(1)}, set.Dates)
}

func TestComputeChangesLeadingGap(t *testing.T) {
	inst := series("AAA", 0, math.NaN(), 100, 110)

	closes, changes, err := ComputeChanges(inst, true)
	require.NoError(t, err)
	require.NoError(t, changes.Validate())

	assert.True(t, math.IsNaN(closes[0]) && math.IsNaN(closes[1]), "leading gaps stay empty")
	assert.True(t, math.IsNaN(changes[0].Change))
	assert.True(t, math.IsNaN(changes[1].Change))
	assert.True(t, math.IsNaN(changes[2].Change))
	assert.InDelta(t, 10.0, changes[3].Change, tolerance)
}

func TestInterpolateLinear(t *testing.T) {
	nan := math.NaN()
	values := []float64{nan, 1, nan, nan, 4, nan}
	interpolateLinear(values)

	assert.True(t, math.IsNaN(values[0]), "leading gaps stay empty")
	assert.Equal(t, []float64{1, 2, 3, 4, 4}, values[1:])

	empty := []float64{nan, nan}
	interpolateLinear(empty)
	assert.True(t, math.IsNaN(empty[0]) && math.IsNaN(empty[1]))
}

// ─── ShockSelector ───────────────────────────────────────────────────────────

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{1, 2, 3, 4, 5}, 5, 1.2},
		{[]float64{1, 2, 3, 4, 5}, 100, 5},
		{[]float64{1, 2, 3, 4, 5}, 25, 2},
		{[]float64{-10, 0, 10}, 75, 5},
		{[]float64{7}, 30, 7},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(tt.values, tt.p), tolerance, "P%v of %v", tt.p, tt.values)
	}
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestValidatePercentile(t *testing.T) {
	for _, p := range []float64{0.001, 5, 50, 100} {
		assert.NoError(t, ValidatePercentile(p), "p=%v", p)
	}
	for _, p := range []float64{0, -1, 100.01, math.NaN()} {
		assert.ErrorIs(t, ValidatePercentile(p), models.ErrInvalidArgument, "p=%v", p)
	}
}

func TestSelectShocksDirectionRule(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	closes := make([]float64, 500)
	closes[0] = 1000
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * (1 + rng.NormFloat64()/100)
	}
	inst := enrich(t, series("RND", closes...))

	for _, p := range []float64{0.5, 5, 25, 50, 50.5, 75, 95, 100} {
		set, err := SelectShocks("RND", inst.Changes, p)
		require.NoError(t, err)
		require.NoError(t, set.Validate())

		assert.InDelta(t, Percentile(set.Sorted, p), set.Threshold, tolerance)

		selected := make(map[time.Time]bool, len(set.Dates))
		for _, d := range set.Dates {
			selected[d] = true
		}
		for _, c := range inst.Changes {
			if p <= 50 {
				assert.Equal(t, c.Change <= set.Threshold, selected[c.Date], "p=%v change=%v", p, c.Change)
			} else {
				assert.Equal(t, c.Change > set.Threshold, selected[c.Date], "p=%v change=%v", p, c.Change)
			}
		}
	}
}

func TestSelectShocksBoundaryAtFifty(t *testing.T) {
	changes := models.ChangeSeries{
		{Date: day(0), Change: 0},
		{Date: day(1), Change: -1},
		{Date: day(2), Change: 1},
	}

	crash, err := SelectShocks("A", changes, 50)
	require.NoError(t, err)
	assert.Equal(t, 0.0, crash.Threshold)
	assert.Equal(t, []time.Time{day(0), day(1)}, crash.Dates, "threshold itself is included at 50")
	assert.Equal(t, models.ModeCrash, crash.Mode())

	rally, err := SelectShocks("A", changes, 100)
	require.NoError(t, err)
	assert.Empty(t, rally.Dates, "nothing is strictly above the maximum")
	assert.Equal(t, models.ModeRally, rally.Mode())
}

func TestSelectShocksSingleRally(t *testing.T) {
	closes := walk(100, 300)
	closes[150] = closes[149] * 1.08
	for i := 151; i < len(closes); i++ {
		closes[i] = closes[i-1] * (closes[i-150] / closes[i-151])
	}
	inst := enrich(t, series("AAA", closes...))

	set, err := SelectShocks("AAA", inst.Changes, 99.9)
	require.NoError(t, err)
	require.Less(t, set.Threshold, 8.0)
	assert.Equal(t, []time.Time{day(150)}, set.Dates)
}

func TestSelectShocksSkipsUndefined(t *testing.T) {
	changes := models.ChangeSeries{
		{Date: day(0), Change: 0},
		{Date: day(1), Change: math.NaN()},
		{Date: day(2), Change: -3},
	}
	set, err := SelectShocks("A", changes, 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{-3, 0}, set.Sorted)
	assert.Equal(t, []time.Time{day(2)}, set.Dates)

	empty, err := SelectShocks("A", models.ChangeSeries{}, 10)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(empty.Threshold))
	assert.Empty(t, empty.Dates)
}

func TestSelectShocksInvalidPercentile(t *testing.T) {
	_, err := SelectShocks("A", models.ChangeSeries{}, 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = SelectShocks("A", models.ChangeSeries{}, 101)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

// ─── ForwardEffectEngine ─────────────────────────────────────────────────────

func crashScenario() *models.Instrument {
	closes := append([]float64{100, 90, 92}, walk(92, 398)[1:]...)
	return series("AAA", closes...)
}

func TestComputeEffectsScenario(t *testing.T) {
	inst := enrich(t, crashScenario())

	set, err := SelectShocks("AAA", inst.Changes, 5)
	require.NoError(t, err)
	require.Contains(t, set.Dates, day(1))

	records, err := NewEngine(0).ComputeEffects(inst, set)
	require.NoError(t, err)
	require.Len(t, records, len(set.Dates))

	var crash models.EffectRecord
	for _, r := range records {
		if r.Date.Equal(day(1)) {
			crash = r
		}
	}
	assert.Equal(t, "AAA", crash.Index)
	assert.Equal(t, 90.0, crash.Close)
	assert.InDelta(t, -10.0, crash.Drop, tolerance)

	oneDay, _ := crash.Effect("1D")
	require.True(t, oneDay.Available)
	assert.InDelta(t, (92.0-90.0)/90.0*100, oneDay.Value, tolerance)

	for n, h := range models.Horizons {
		target := inst.Points[1+h.Days].Close
		require.True(t, crash.Effects[n].Available, h.Label)
		assert.Equal(t, (target-90)/90*100, crash.Effects[n].Value, h.Label)
	}
}

func TestComputeEffectsPastLastDate(t *testing.T) {
	inst := enrich(t, series("AAA", walk(100, 30)...))
	set := &models.ShockSet{InstrumentID: "AAA", Percentile: 5, Dates: []time.Time{day(25)}}

	records, err := NewEngine(0).ComputeEffects(inst, set)
	require.NoError(t, err)
	require.Len(t, records, 1)

	oneDay, _ := records[0].Effect("1D")
	assert.True(t, oneDay.Available)
	for _, label := range []string{"1W", "4W", "12W", "26W", "52W"} {
		e, _ := records[0].Effect(label)
		assert.False(t, e.Available, label)
		assert.Equal(t, models.NotAvailable, e.String())
	}
}

func TestComputeEffectsSkipsZeroAndMissingPrices(t *testing.T) {
	closes := walk(100, 20)
	closes[11] = 0
	raw := series("AAA", closes...)
	// Day 12 has no row at all.
	raw.Points = append(raw.Points[:12], raw.Points[13:]...)
	inst := withChanges(t, raw)

	set := &models.ShockSet{InstrumentID: "AAA", Percentile: 5, Dates: []time.Time{day(10)}}
	records, err := NewEngine(0).ComputeEffects(inst, set)
	require.NoError(t, err)

	oneDay, _ := records[0].Effect("1D")
	require.True(t, oneDay.Available)
	assert.InDelta(t, (closes[13]-closes[10])/closes[10]*100, oneDay.Value, tolerance)
}

func TestComputeEffectsExhaustedSeries(t *testing.T) {
	closes := walk(100, 12)
	closes[10], closes[11] = 0, 0
	inst := withChanges(t, series("AAA", closes...))

	set := &models.ShockSet{InstrumentID: "AAA", Percentile: 5, Dates: []time.Time{day(9)}}
	_, err := NewEngine(0).ComputeEffects(inst, set)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataLookup)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageEffects, stageErr.Stage)
	assert.True(t, stageErr.Date.Equal(day(9)))
	assert.Contains(t, err.Error(), "horizon 1D")
}

func TestComputeEffectsLookaheadBound(t *testing.T) {
	closes := walk(100, 40)
	for i := 11; i < 20; i++ {
		closes[i] = 0
	}
	inst := withChanges(t, series("AAA", closes...))
	set := &models.ShockSet{InstrumentID: "AAA", Percentile: 5, Dates: []time.Time{day(10)}}

	_, err := NewEngine(5).ComputeEffects(inst, set)
	assert.ErrorIs(t, err, models.ErrDataLookup)

	records, err := NewEngine(10).ComputeEffects(inst, set)
	require.NoError(t, err)
	oneDay, _ := records[0].Effect("1D")
	assert.InDelta(t, (closes[20]-closes[10])/closes[10]*100, oneDay.Value, tolerance)
}

func TestComputeEffectsRequiresChanges(t *testing.T) {
	inst := series("AAA", walk(100, 10)...)
	set := &models.ShockSet{InstrumentID: "AAA", Percentile: 5, Dates: []time.Time{day(1)}}

	_, err := NewEngine(0).ComputeEffects(inst, set)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestComputeEffectsZeroBaseline(t *testing.T) {
	closes := walk(100, 10)
	closes[3] = 0
	inst := withChanges(t, series("AAA", closes...))
	set := &models.ShockSet{InstrumentID: "AAA", Percentile: 5, Dates: []time.Time{day(3)}}

	_, err := NewEngine(0).ComputeEffects(inst, set)
	assert.ErrorIs(t, err, models.ErrArithmetic)
}

// ─── EffectAggregator ────────────────────────────────────────────────────────

func aggregateFixture(t *testing.T) ([]*models.Instrument, map[string]*models.ShockSet) {
	t.Helper()
	var instruments []*models.Instrument
	sets := make(map[string]*models.ShockSet)
	for n, id := range []string{"BBB", "AAA", "CCC"} {
		inst := enrich(t, series(id, walk(100+float64(n), 60)...))
		set, err := SelectShocks(id, inst.Changes, 10)
		require.NoError(t, err)
		instruments = append(instruments, inst)
		sets[id] = set
	}
	return instruments, sets
}

func indexSequence(table *models.EffectTable) []string {
	var seq []string
	for _, r := range table.Records {
		if len(seq) == 0 || seq[len(seq)-1] != r.Index {
			seq = append(seq, r.Index)
		}
	}
	return seq
}

func TestAggregateAll(t *testing.T) {
	instruments, sets := aggregateFixture(t)

	table, err := Aggregate(instruments, sets, NewEngine(0), ScopeAll, true)
	require.NoError(t, err)

	assert.Equal(t, models.EffectColumns, table.Columns())
	assert.Equal(t, []string{"BBB", "AAA", "CCC"}, indexSequence(table))
	assert.Equal(t, len(sets["AAA"].Dates)+len(sets["BBB"].Dates)+len(sets["CCC"].Dates), table.Len())
}

func TestAggregateScopeIncludesAll(t *testing.T) {
	instruments, sets := aggregateFixture(t)

	table, err := Aggregate(instruments, sets, NewEngine(0), "AAA", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB", "AAA", "CCC"}, indexSequence(table))
	assert.Equal(t, 2*len(sets["AAA"].Dates), table.Filter("AAA").Len())
}

func TestAggregateScopeOnly(t *testing.T) {
	instruments, sets := aggregateFixture(t)

	table, err := Aggregate(instruments, sets, NewEngine(0), "AAA", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA"}, indexSequence(table))
	assert.Equal(t, len(sets["AAA"].Dates), table.Len())
}

func TestAggregateUnknownScope(t *testing.T) {
	instruments, sets := aggregateFixture(t)

	_, err := Aggregate(instruments, sets, NewEngine(0), "ZZZ", true)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
