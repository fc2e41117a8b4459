package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/indexshock/internal/logger"
	"github.com/rewired-gh/indexshock/internal/models"
)

// LoadOptions controls how a data directory is read.
type LoadOptions struct {
	Exclude     string // files whose full path contains this substring are metadata, not series
	PriceColumn string
	DateLayout  string
}

// DefaultLoadOptions matches the Yahoo Finance CSV export.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Exclude:     "sources",
		PriceColumn: "Adj Close",
		DateLayout:  models.DateLayout,
	}
}

func (o LoadOptions) withDefaults() LoadOptions {
	d := DefaultLoadOptions()
	if o.PriceColumn == "" {
		o.PriceColumn = d.PriceColumn
	}
	if o.DateLayout == "" {
		o.DateLayout = d.DateLayout
	}
	return o
}

// InstrumentID extracts the identifier from a file name such as "^GSPC.csv".
// It returns false when the name has no ".csv" suffix marker.
func InstrumentID(name string) (string, bool) {
	base := filepath.Base(name)
	stop := strings.Index(base, ".csv")
	if stop < 0 {
		return "", false
	}
	start := strings.Index(base, "^") + 1
	if start > stop {
		return "", false
	}
	return base[start:stop], true
}

// LoadDir reads every instrument file in dir into a new Storage.
// Files are visited in lexical name order, which becomes the discovery order.
func LoadDir(dir string, opts LoadOptions) (*Storage, error) {
	opts = opts.withDefaults()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w: %v", dir, models.ErrDataSource, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	s := New()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if opts.Exclude != "" && strings.Contains(path, opts.Exclude) {
			logger.Debug("Skipping metadata file %s", path)
			continue
		}
		id, ok := InstrumentID(e.Name())
		if !ok || id == "" {
			logger.Debug("Skipping non-CSV file %s", e.Name())
			continue
		}

		inst, err := LoadFile(path, id, opts)
		if err != nil {
			return nil, err
		}
		if err := s.AddInstrument(inst); err != nil {
			return nil, &models.StageError{
				Stage:      models.StageLoad,
				Instrument: id,
				Err:        fmt.Errorf("%s: %w: %v", path, models.ErrDataSource, err),
			}
		}
		logger.Debug("Loaded %s from %s (%d rows)", id, e.Name(), inst.Len())
	}

	logger.Info("Loaded %d instruments from %s", s.Len(), dir)
	return s, nil
}

// LoadFile reads a single instrument file.
func LoadFile(path, id string, opts LoadOptions) (*models.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.StageError{
			Stage:      models.StageLoad,
			Instrument: id,
			Err:        fmt.Errorf("%w: %v", models.ErrDataSource, err),
		}
	}
	defer f.Close()

	inst, err := ParseCSV(f, id, opts)
	if err != nil {
		return nil, &models.StageError{
			Stage:      models.StageLoad,
			Instrument: id,
			Err:        fmt.Errorf("%s: %w", path, err),
		}
	}
	inst.Source = path
	return inst, nil
}

// ParseCSV reads a price series. The first column is the date, the price is
// taken from the column named opts.PriceColumn. Empty, "null" and "NaN"
// cells are missing prices.
func ParseCSV(r io.Reader, id string, opts LoadOptions) (*models.Instrument, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file: %w", models.ErrDataSource)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w: %v", models.ErrDataSource, err)
	}

	priceCol := -1
	for n, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == opts.PriceColumn {
			priceCol = n
			break
		}
	}
	if priceCol <= 0 {
		return nil, fmt.Errorf("column %q not found: %w", opts.PriceColumn, models.ErrDataSource)
	}

	inst := &models.Instrument{ID: id, Points: make([]models.PricePoint, 0, 256)}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, models.ErrDataSource, err)
		}

		date, err := time.Parse(opts.DateLayout, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[0], models.ErrDataSource)
		}

		price, err := parsePrice(record[priceCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, models.ErrDataSource)
		}

		if n := len(inst.Points); n > 0 && !date.After(inst.Points[n-1].Date) {
			return nil, fmt.Errorf("line %d: date %s is not after %s: %w",
				line, date.Format(models.DateLayout), inst.Points[n-1].Date.Format(models.DateLayout), models.ErrDataSource)
		}

		inst.Points = append(inst.Points, models.PricePoint{Date: date, Close: price})
	}

	if len(inst.Points) == 0 {
		return nil, fmt.Errorf("no price rows: %w", models.ErrDataSource)
	}
	return inst, nil
}

func parsePrice(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "null", "nan":
		return math.NaN(), nil
	}

	price, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", cell)
	}
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, fmt.Errorf("invalid price %q", cell)
	}
	if price < 0 {
		return 0, fmt.Errorf("negative price %v", price)
	}
	return price, nil
}
