package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rewired-gh/indexshock/internal/models"
)

// WriteCSV writes the header and one line per record.
func WriteCSV(w io.Writer, table *models.EffectTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(table.Rows()); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
