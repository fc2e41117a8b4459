package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/indexshock/internal/models"
)

const priceFormat = "#,###.##"

// WriteTable prints the effect table as aligned columns.
func WriteTable(w io.Writer, table *models.EffectTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(tw, strings.Join(table.Columns(), "\t")+"\t")
	for _, r := range table.Records {
		cols := []string{
			r.Index,
			r.Date.Format(models.DateLayout),
			humanize.FormatFloat(priceFormat, r.Close),
			formatPct(r.Drop),
		}
		for _, e := range r.Effects {
			if e.Available {
				cols = append(cols, formatPct(e.Value))
			} else {
				cols = append(cols, models.NotAvailable)
			}
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t")+"\t")
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// WriteSummary prints one line per instrument with its date range and price bounds.
func WriteSummary(w io.Writer, rows []models.SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(models.SummaryColumns, "\t"))
	for _, s := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Index,
			s.First.Format(models.DateLayout),
			s.Last.Format(models.DateLayout),
			humanize.FormatFloat(priceFormat, s.Min),
			humanize.FormatFloat(priceFormat, s.Max),
			humanize.Comma(int64(s.Observations)),
		)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func formatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
