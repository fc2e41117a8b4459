package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rewired-gh/indexshock/internal/config"
	"github.com/rewired-gh/indexshock/internal/logger"
	"github.com/rewired-gh/indexshock/internal/storage"
)

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"data-dir":      "data.dir",
	"exclude":       "data.exclude",
	"price-column":  "data.price_column",
	"percentile":    "analysis.percentile",
	"scope":         "analysis.scope",
	"include-all":   "analysis.include_all",
	"fill-gaps":     "analysis.fill_gaps",
	"max-lookahead": "analysis.max_lookahead_days",
	"workers":       "analysis.workers",
	"output":        "output.path",
	"format":        "output.format",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
}

func main() {
	// Report failures that happen before the configured logger is ready.
	logger.Init("info", "text")

	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "indexshock",
		Short: "Measure how stock indices behave after extreme daily moves",
		Long: `indexshock reads daily index closes from a directory of CSV files, selects
the days whose percentage change lies beyond a percentile threshold, and reports
the forward returns 1 day, 1 week and 4, 12, 26 and 52 weeks later.

Percentiles up to 50 select crashes, percentiles above 50 select rallies.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Path to configuration file")
	pf.String("data-dir", "./data", "Directory of index CSV files")
	pf.String("exclude", "sources", "Skip files whose name contains this text")
	pf.String("price-column", "Adj Close", "CSV column holding the close price")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "text", "Log format: text, json")

	root.AddCommand(newPrepareCmd(a), newSummaryCmd(a))
	return root
}

// setup binds flags, loads configuration and initializes logging.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		if err := a.v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return bindErr
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	}

	cfg, err := config.LoadFromViper(a.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.With("run_id", uuid.New().String())
	if a.cfgFile != "" {
		logger.Info("Configuration loaded from %s", a.cfgFile)
	}
	return nil
}

func (a *app) loadStore() (*storage.Storage, error) {
	store, err := storage.LoadDir(a.cfg.Data.Dir, storage.LoadOptions{
		Exclude:     a.cfg.Data.Exclude,
		PriceColumn: a.cfg.Data.PriceColumn,
		DateLayout:  a.cfg.Data.DateLayout,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Data directory %s holds %d instruments", a.cfg.Data.Dir, store.Len())
	return store, nil
}
