package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lacuna/internal/library"
)

// newResetCommand deletes stored records for a domain. Owned items are
// untouched; the next analyze run rebuilds the records from scratch.
func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "reset {series|collections|discography|albums}",
		Short:     "Delete stored completeness records for a domain",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"series", "collections", "discography", "albums"},
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, ok := reportDomains[args[0]]
			if !ok {
				return fmt.Errorf("unknown domain %q", args[0])
			}
			return ctx.withStore(func(runCtx context.Context, store *library.Store) error {
				deleted, err := store.DeleteRecords(runCtx, domain)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s record(s)\n", deleted, args[0])
				return nil
			})
		},
	}
}
