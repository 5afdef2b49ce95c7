package density

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/dendsyn/internal/constants"
	"github.com/nvandessel/dendsyn/internal/logging"
	"github.com/nvandessel/dendsyn/internal/table"
	"golang.org/x/sync/errgroup"
)

// Options selects what a Runner extracts.
type Options struct {
	// Target names the cells to extract and the presynaptic population of
	// local synapses. Empty means constants.DefaultTarget.
	Target string

	// Jobs is the number of concurrent workers, or constants.AllCPUs.
	Jobs int

	// Splits is the number of data splits. 0 means one split per job.
	Splits int

	// SplitIndex restricts the run to one split. Negative means all splits.
	SplitIndex int

	// ProgressSteps is the number of progress reports per split. 0 disables them.
	ProgressSteps int
}

// Result is the outcome of a Runner.Run call.
type Result struct {
	Table  *table.Table
	Jobs   int
	Splits int
}

// Runner extracts cell tables split by split.
type Runner struct {
	Source       Source
	Morphologies MorphologyStats
	Logger       *slog.Logger
	Events       *logging.EventLogger
}

// Run resolves the target, divides its gids into splits and extracts them
// with at most Jobs splits in flight. The first failing split cancels the
// rest. Split tables are concatenated in split order.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	target := opts.Target
	if target == "" {
		target = constants.DefaultTarget
	}

	nsplits, jobs, err := ResolvePlan(opts.Jobs, opts.Splits)
	if err != nil {
		return nil, err
	}
	if opts.SplitIndex >= nsplits {
		return nil, fmt.Errorf("split index %d out of range for %d splits", opts.SplitIndex, nsplits)
	}

	gids, err := r.Source.CellIDs(target)
	if err != nil {
		return nil, err
	}
	splits, err := CreateSplits(gids, nsplits)
	if err != nil {
		return nil, err
	}
	logger.Info("Created data splits", "splits", nsplits, "target", target, "cells", len(gids))

	ex := NewExtractor(r.Source, r.Morphologies, gids, logger)
	ex.ProgressSteps = opts.ProgressSteps

	results := make([]*table.Table, nsplits)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, split := range splits {
		if opts.SplitIndex >= 0 && i != opts.SplitIndex {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			r.Events.SplitStarted(i, len(split))

			t, err := ex.Extract(gctx, split)
			if err != nil {
				r.Events.SplitFailed(i, err)
				return fmt.Errorf("split %d: %w", i, err)
			}
			results[i] = t

			r.Events.SplitFinished(i, t.Len(), time.Since(start))
			logger.Debug("Split finished", "split", i, "cells", t.Len(), "elapsed", time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parts := make([]*table.Table, 0, nsplits)
	for _, t := range results {
		if t != nil {
			parts = append(parts, t)
		}
	}
	tbl, err := table.Concat(parts...)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		tbl = table.New(ex.Projections())
	}

	return &Result{Table: tbl, Jobs: jobs, Splits: nsplits}, nil
}
