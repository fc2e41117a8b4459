package main

import (
	"github.com/spf13/cobra"

	"github.com/rewired-gh/indexshock/internal/report"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "List the loaded indices with their date range and price bounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			return report.WriteSummary(cmd.OutOrStdout(), store.Summarize())
		},
	}
}
