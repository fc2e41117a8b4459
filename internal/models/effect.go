package models

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// NotAvailable is how an unavailable effect is rendered in tables.
const NotAvailable = "N/A"

// Horizon is a calendar offset after a shock.
type Horizon struct {
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// NumHorizons is the number of horizons measured per shock.
const NumHorizons = 6

// Horizons lists the measured offsets in column order.
var Horizons = [NumHorizons]Horizon{
	{Label: "1D", Days: 1},
	{Label: "1W", Days: 7},
	{Label: "4W", Days: 28},
	{Label: "12W", Days: 84},
	{Label: "26W", Days: 182},
	{Label: "52W", Days: 364},
}

// EffectColumns is the fixed column order of an effect table.
var EffectColumns = []string{"Index", "Date", "Close", "Drop", "1D", "1W", "4W", "12W", "26W", "52W"}

// Effect is the forward return at one horizon, in percent.
type Effect struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// Unavailable is the effect of a horizon that lies past the end of the series.
var Unavailable = Effect{}

// Return builds an available effect.
func Return(value float64) Effect {
	return Effect{Value: value, Available: true}
}

// String renders the value with full precision, or NotAvailable.
func (e Effect) String() string {
	if !e.Available {
		return NotAvailable
	}
	return strconv.FormatFloat(e.Value, 'g', -1, 64)
}

// EffectRecord is one table row: a shock and what followed it.
type EffectRecord struct {
	Index   string              `json:"index"`
	Date    time.Time           `json:"date"`
	Close   float64             `json:"close"`
	Drop    float64             `json:"drop"` // change on the shock date, in percent
	Effects [NumHorizons]Effect `json:"effects"`
}

// Effect returns the effect for a horizon label such as "4W".
func (r *EffectRecord) Effect(label string) (Effect, bool) {
	for n, h := range Horizons {
		if h.Label == label {
			return r.Effects[n], true
		}
	}
	return Effect{}, false
}

// Validate checks that all record fields are valid.
func (r *EffectRecord) Validate() error {
	if r.Index == "" {
		return errors.New("record index must not be empty")
	}
	if r.Date.IsZero() {
		return errors.New("record date must be set")
	}
	if math.IsNaN(r.Close) || r.Close <= 0 {
		return errors.New("record close must be positive")
	}
	for _, e := range r.Effects {
		if e.Available && (math.IsNaN(e.Value) || math.IsInf(e.Value, 0)) {
			return errors.New("available effect must be finite")
		}
	}
	return nil
}

// Strings renders the record in EffectColumns order.
func (r *EffectRecord) Strings() []string {
	row := make([]string, 0, len(EffectColumns))
	row = append(row,
		r.Index,
		r.Date.Format(DateLayout),
		strconv.FormatFloat(r.Close, 'g', -1, 64),
		strconv.FormatFloat(r.Drop, 'g', -1, 64),
	)
	for _, e := range r.Effects {
		row = append(row, e.String())
	}
	return row
}

// EffectTable is an ordered collection of effect records.
type EffectTable struct {
	Records []EffectRecord `json:"records"`
}

// NewEffectTable returns an empty table.
func NewEffectTable() *EffectTable {
	return &EffectTable{Records: []EffectRecord{}}
}

// Columns returns a copy of EffectColumns.
func (t *EffectTable) Columns() []string {
	cols := make([]string, len(EffectColumns))
	copy(cols, EffectColumns)
	return cols
}

// Append adds records at the end of the table.
func (t *EffectTable) Append(records ...EffectRecord) {
	t.Records = append(t.Records, records...)
}

// Len returns the number of rows.
func (t *EffectTable) Len() int {
	return len(t.Records)
}

// Filter returns the rows of one instrument, in table order.
func (t *EffectTable) Filter(index string) *EffectTable {
	out := NewEffectTable()
	for _, r := range t.Records {
		if r.Index == index {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// Rows renders every record in EffectColumns order.
func (t *EffectTable) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for n := range t.Records {
		rows[n] = t.Records[n].Strings()
	}
	return rows
}
