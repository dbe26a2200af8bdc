package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"lacuna/internal/completeness"
	"lacuna/internal/config"
	"lacuna/internal/library"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		provider    string
		libraryName string
		force       bool
		noDedupe    bool
		vinylFilter bool
		trackLevel  bool
	)

	cmd := &cobra.Command{
		Use:       "analyze {series|collections|discography|all}",
		Short:     "Reconcile the library against the catalogs",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"series", "collections", "discography", "all"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(runCtx context.Context, engine *completeness.Engine, cfg *config.Config) error {
				out := cmd.OutOrStdout()
				opts := completeness.Options{
					Provider: provider,
					Library:  libraryName,
					Force:    force,
					Progress: progressPrinter(out),
				}
				if noDedupe {
					dedupe := false
					opts.Deduplicate = &dedupe
				}
				if cmd.Flags().Changed("vinyl-filter") {
					opts.FilterVinylOnly = &vinylFilter
				}
				if cmd.Flags().Changed("track-level") {
					opts.TrackLevel = &trackLevel
				}

				switch args[0] {
				case "series":
					summary, err := engine.AnalyzeSeries(runCtx, opts)
					return printSummary(out, summary, err)
				case "collections":
					summary, err := engine.AnalyzeCollections(runCtx, opts)
					return printSummary(out, summary, err)
				case "discography":
					summary, err := engine.AnalyzeDiscographies(runCtx, opts)
					return printSummary(out, summary, err)
				case "all":
					summaries, err := engine.AnalyzeAll(runCtx, opts)
					if err != nil {
						return err
					}
					for _, domain := range []library.Domain{library.DomainSeries, library.DomainCollection, library.DomainDiscography} {
						if summary, ok := summaries[domain]; ok {
							fmt.Fprintf(out, "%s: ", domain)
							writeSummary(out, summary)
						}
					}
					return nil
				default:
					return fmt.Errorf("unknown analysis domain %q", args[0])
				}
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Restrict analysis to one provider")
	cmd.Flags().StringVar(&libraryName, "library", "", "Restrict analysis to one library")
	cmd.Flags().BoolVar(&force, "force", false, "Reanalyze units even when a fresh record exists")
	cmd.Flags().BoolVar(&noDedupe, "no-dedupe", false, "Do not collapse duplicate copies across providers")
	cmd.Flags().BoolVar(&vinylFilter, "vinyl-filter", false, "Exclude vinyl-only release groups from discography totals")
	cmd.Flags().BoolVar(&trackLevel, "track-level", false, "Also write per-album track records")
	return cmd
}

// progressPrinter renders per-unit progress on terminals and stays
// quiet when output is piped.
func progressPrinter(out io.Writer) completeness.ProgressFunc {
	if !isTerminal(out) {
		return nil
	}
	return func(p completeness.Progress) {
		switch p.Phase {
		case completeness.PhaseScanning:
			if p.Current > 0 {
				fmt.Fprintf(out, "\rScanning %d/%d", p.Current, p.Total)
			}
		case completeness.PhaseFetching:
			marker := ""
			if p.Skipped > 0 {
				marker = fmt.Sprintf(" (%d fresh, skipped)", p.Skipped)
			}
			fmt.Fprintf(out, "\r\033[K[%d/%d] %s%s", p.Current, p.Total, p.CurrentUnit, marker)
		case completeness.PhaseComplete:
			fmt.Fprint(out, "\r\033[K")
		}
	}
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printSummary(out io.Writer, summary *completeness.Summary, err error) error {
	if err != nil {
		return err
	}
	writeSummary(out, summary)
	return nil
}

func writeSummary(out io.Writer, summary *completeness.Summary) {
	state := "completed"
	if !summary.Completed {
		state = "cancelled"
	}
	fmt.Fprintf(out, "Analysis %s: %d analyzed, %d skipped, %d failed\n",
		state, summary.Analyzed, summary.Skipped, summary.Failed)
}
