package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"StockAnalyst/internal/notifier"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Collect the series once and update the record cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		evt, err := a.sched.RefreshNow(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), notifier.FormatRefreshReport(evt))
		return err
	},
}
