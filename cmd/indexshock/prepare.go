package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/indexshock/internal/logger"
	"github.com/rewired-gh/indexshock/internal/report"
	"github.com/rewired-gh/indexshock/internal/shock"
)

func newPrepareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Build the effect table for a percentile and scope",
		Long: `Build the effect table: one row per shock date with the forward
returns at every horizon.

Examples:
  indexshock prepare --percentile 5
  indexshock prepare --percentile 95 --scope GSPC --include-all=false
  indexshock prepare --percentile 1 --output effects.xlsx --format xlsx`,
		Args: cobra.NoArgs,
		RunE: a.runPrepare,
	}

	f := cmd.Flags()
	f.Float64("percentile", 5, "Percentile threshold in (0, 100]")
	f.String("scope", shock.ScopeAll, "Index identifier, or All")
	f.Bool("include-all", true, "Append every index after a specific scope")
	f.Bool("fill-gaps", true, "Interpolate missing closes and undefined changes")
	f.Int("max-lookahead", shock.DefaultMaxLookahead, "Days to scan forward for a usable price")
	f.Int("workers", 4, "Indices analyzed concurrently")
	f.StringP("output", "o", "", "Output file (standard output when empty)")
	f.String("format", report.FormatTable, "Output format: csv, xlsx, table")
	return cmd
}

func (a *app) runPrepare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	store, err := a.loadStore()
	if err != nil {
		return err
	}

	analyzer := shock.NewAnalyzer(store, shock.Options{
		FillGaps:     a.cfg.Analysis.FillGaps,
		IncludeAll:   a.cfg.Analysis.IncludeAll,
		MaxLookahead: a.cfg.Analysis.MaxLookaheadDays,
		Workers:      a.cfg.Analysis.Workers,
	})

	table, err := analyzer.Prepare(ctx, a.cfg.Analysis.Percentile, a.cfg.Analysis.Scope)
	if err != nil {
		return err
	}

	if err := report.Export(a.cfg.Output.Path, a.cfg.Output.Format, table, analyzer.Summarize()); err != nil {
		return err
	}

	logger.Info("Prepare finished: %d rows (percentile=%.2f, scope=%s) in %v",
		table.Len(), a.cfg.Analysis.Percentile, a.cfg.Analysis.Scope, time.Since(start))
	return nil
}
