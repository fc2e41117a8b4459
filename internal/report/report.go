// Package report renders effect and summary tables for people and spreadsheets.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/rewired-gh/indexshock/internal/logger"
	"github.com/rewired-gh/indexshock/internal/models"
)

// Output formats accepted by Export.
const (
	FormatCSV   = "csv"
	FormatXLSX  = "xlsx"
	FormatTable = "table"
)

// Export writes table in the given format. For csv and table an empty path
// means standard output; xlsx always needs a path.
func Export(path, format string, table *models.EffectTable, summary []models.SummaryRow) error {
	switch format {
	case FormatXLSX:
		if path == "" {
			return fmt.Errorf("xlsx output needs a file path")
		}
		if err := WriteXLSX(path, table, summary); err != nil {
			return err
		}
	case FormatCSV, FormatTable:
		if err := withOutput(path, func(w io.Writer) error {
			if format == FormatCSV {
				return WriteCSV(w, table)
			}
			return WriteTable(w, table)
		}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}

	if path != "" {
		logger.Info("Wrote %d effect rows to %s (%s)", table.Len(), path, format)
	}
	return nil
}

// withOutput runs write against path, or standard output when path is empty.
func withOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
