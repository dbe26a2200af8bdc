package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lacuna/internal/library"
)

var reportDomains = map[string]library.Domain{
	"series":      library.DomainSeries,
	"collections": library.DomainCollection,
	"discography": library.DomainDiscography,
	"albums":      library.DomainAlbum,
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var showMissing bool
	var statusFilter string

	cmd := &cobra.Command{
		Use:       "report {series|collections|discography|albums}",
		Short:     "Show stored completeness records",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"series", "collections", "discography", "albums"},
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, ok := reportDomains[args[0]]
			if !ok {
				return fmt.Errorf("unknown report domain %q", args[0])
			}
			return ctx.withStore(func(runCtx context.Context, store *library.Store) error {
				records, err := store.RecordsByDomain(runCtx, domain)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No records. Run `lacuna analyze` first.")
					return nil
				}

				shown := records
				if statusFilter != "" {
					shown = nil
					for _, record := range records {
						if record.Status == statusFilter {
							shown = append(shown, record)
						}
					}
				}
				fmt.Fprintln(out, recordTable(shown))

				if !showMissing {
					return nil
				}
				for _, record := range records {
					if len(record.Missing) == 0 {
						continue
					}
					fmt.Fprintf(out, "\n%s is missing:\n", record.UnitTitle)
					for _, item := range record.Missing {
						fmt.Fprintf(out, "  - %s\n", describeMissing(domain, item))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showMissing, "missing", false, "List every missing item under each record")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show records with this status (complete, incomplete, unmatched, untracked)")
	return cmd
}

func describeMissing(domain library.Domain, item library.MissingItem) string {
	switch domain {
	case library.DomainSeries:
		return fmt.Sprintf("S%02dE%02d %s", item.Season, item.Episode, item.Title)
	case library.DomainAlbum:
		return fmt.Sprintf("%d. %s", item.Position, item.Title)
	default:
		parts := []string{item.Title}
		if item.Year > 0 {
			parts = append(parts, fmt.Sprintf("(%d)", item.Year))
		}
		if item.Category != "" {
			parts = append(parts, "["+item.Category+"]")
		}
		return strings.Join(parts, " ")
	}
}
