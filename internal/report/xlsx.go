package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/indexshock/internal/models"
)

// Sheet names of the exported workbook.
const (
	EffectsSheet = "Effects"
	SummarySheet = "Summary"
)

// WriteXLSX saves a workbook with an Effects sheet and a Summary sheet.
// Numbers are stored as numeric cells, unavailable effects as "N/A".
func WriteXLSX(path string, table *models.EffectTable, summary []models.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EffectsSheet); err != nil {
		return fmt.Errorf("failed to name effects sheet: %w", err)
	}
	if err := writeRow(f, EffectsSheet, 1, toCells(table.Columns())); err != nil {
		return err
	}
	for i, r := range table.Records {
		if err := writeRow(f, EffectsSheet, i+2, effectCells(r)); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	if err := writeRow(f, SummarySheet, 1, toCells(models.SummaryColumns)); err != nil {
		return err
	}
	for i, s := range summary {
		cells := []interface{}{
			s.Index,
			s.First.Format(models.DateLayout),
			s.Last.Format(models.DateLayout),
			s.Min,
			s.Max,
			s.Observations,
		}
		if err := writeRow(f, SummarySheet, i+2, cells); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func effectCells(r models.EffectRecord) []interface{} {
	cells := make([]interface{}, 0, len(models.EffectColumns))
	cells = append(cells, r.Index, r.Date.Format(models.DateLayout), r.Close, r.Drop)
	for _, e := range r.Effects {
		if e.Available {
			cells = append(cells, e.Value)
		} else {
			cells = append(cells, models.NotAvailable)
		}
	}
	return cells
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
