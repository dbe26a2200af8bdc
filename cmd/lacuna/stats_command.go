package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lacuna/internal/library"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored completeness records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(runCtx context.Context, store *library.Store) error {
				stats, err := store.Stats(runCtx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), metricTable(stats))
				return nil
			})
		},
	}
}
