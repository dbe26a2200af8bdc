package completeness

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lacuna/internal/library"
	"lacuna/internal/logging"
)

type unitResult int

const (
	resultAnalyzed unitResult = iota
	resultSkipped
)

// unit is one logical piece of work: a series, a collection, or an
// artist discography.
type unit struct {
	key   string
	title string
	run   func(ctx context.Context) (unitResult, error)
}

// runUnits drives the batch loop shared by all analyzers. Units run
// concurrently within a batch; the cancel token is checked between
// batches so in-flight units always finish. A failed unit is logged and
// counted, never fatal. A failed checkpoint is fatal: it means
// committed progress can no longer be trusted.
func (e *Engine) runUnits(ctx context.Context, units []unit, opts Options, summary *Summary) error {
	batchSize := e.cfg.Analysis.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	checkpointEvery := e.cfg.Analysis.CheckpointInterval
	if checkpointEvery < 1 {
		checkpointEvery = 25
	}

	logger := logging.WithContext(ctx, e.logger)
	total := len(units)
	processed := 0
	sinceCheckpoint := 0

	for start := 0; start < total; start += batchSize {
		if e.token.Cancelled() {
			logger.Info("cancellation requested, stopping at batch boundary",
				logging.Int("processed", processed),
				logging.Int("total", total),
			)
			break
		}

		end := start + batchSize
		if end > total {
			end = total
		}
		batch := units[start:end]
		results := make([]unitResult, len(batch))
		errs := make([]error, len(batch))

		if opts.Progress != nil {
			for i, u := range batch {
				opts.Progress(Progress{
					Phase:       PhaseFetching,
					Current:     start + i + 1,
					Total:       total,
					CurrentUnit: u.title,
					Skipped:     summary.Skipped,
				})
			}
		}

		var group errgroup.Group
		for i, u := range batch {
			group.Go(func() error {
				results[i], errs[i] = u.run(ctx)
				return nil
			})
		}
		_ = group.Wait()

		for i, u := range batch {
			processed++
			switch {
			case errs[i] != nil:
				summary.Failed++
				logger.Warn("unit analysis failed",
					logging.String(logging.FieldUnit, u.key),
					logging.Error(errs[i]),
				)
			case results[i] == resultSkipped:
				summary.Skipped++
			default:
				summary.Analyzed++
			}
			sinceCheckpoint++
			if sinceCheckpoint >= checkpointEvery {
				if err := e.store.Checkpoint(ctx); err != nil {
					return fmt.Errorf("checkpoint after %d units: %w", processed, err)
				}
				sinceCheckpoint = 0
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if opts.Progress != nil {
		opts.Progress(Progress{Phase: PhaseComplete, Current: processed, Total: total, Skipped: summary.Skipped})
	}
	return nil
}

// skipFresh reports whether a prior record makes re-analysis
// unnecessary: the record is younger than the reanalyze window and the
// unit's scanned owned count has not changed since it was written. The
// scanned count is compared, not the in-catalog owned count, so owned
// items the catalog does not know about (specials, bonus tracks) do
// not defeat the skip.
func (e *Engine) skipFresh(ctx context.Context, domain library.Domain, unitKey, scope string, ownedCount int, opts Options) (bool, error) {
	if opts.Force {
		return false, nil
	}
	record, err := e.store.Record(ctx, domain, unitKey, scope)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	window := e.reanalyzeWindow()
	if window <= 0 {
		return false, nil
	}
	if e.now().Sub(record.AnalyzedAt) >= window {
		return false, nil
	}
	return record.ScannedCount == ownedCount, nil
}
