// Package batch drives one batch of a sweep end to end: generate the task
// list, select the batch, run it, assemble the results and persist them.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/dataset"
	"github.com/banshee-data/joint-strength/internal/ledger"
	"github.com/banshee-data/joint-strength/internal/monitoring"
	"github.com/banshee-data/joint-strength/internal/simulation"
	"github.com/banshee-data/joint-strength/internal/sweep"
	"github.com/banshee-data/joint-strength/internal/timeutil"
)

// Recorder receives the lifecycle of a batch run. *ledger.Ledger implements
// it.
type Recorder interface {
	StartRun(ctx context.Context, s ledger.RunStart) (string, error)
	CompleteRun(ctx context.Context, runID string, rows int, outputPath string) error
	FailRun(ctx context.Context, runID string, cause error) error
}

// Options configures Run. Config, Runner and Store are required.
type Options struct {
	Config *config.SweepConfig
	// Batch and NumBatches select one contiguous batch (1-based). Both zero
	// runs the whole task list as a single, unlabelled batch.
	Batch      int
	NumBatches int

	Runner   simulation.Runner
	Store    *dataset.Store
	Recorder Recorder
	Clock    timeutil.Clock
}

// Summary describes a completed batch.
type Summary struct {
	RunID      string
	BatchLabel string
	Tasks      int
	Rows       int
	Path       string
	Elapsed    time.Duration
}

// Run executes one batch. Nothing is written unless every task of the batch
// succeeded; the first failed task is returned as a SimulationFailure.
func Run(ctx context.Context, opts Options) (Summary, error) {
	if opts.Runner == nil || opts.Store == nil {
		return Summary{}, errors.New("batch: runner and store are required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	log := monitoring.Logger()

	all, err := sweep.Generate(opts.Config)
	if err != nil {
		return Summary{}, err
	}
	tasks, err := sweep.SelectBatch(all, opts.Batch, opts.NumBatches)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{BatchLabel: sweep.BatchLabel(opts.Batch), Tasks: len(tasks)}
	if opts.Recorder != nil {
		sum.RunID, err = opts.Recorder.StartRun(ctx, ledger.RunStart{
			BatchLabel:   sum.BatchLabel,
			BatchIndex:   opts.Batch,
			TotalBatches: opts.NumBatches,
			TaskCount:    len(tasks),
		})
		if err != nil {
			return Summary{}, fmt.Errorf("record run start: %w", err)
		}
	}

	start := clock.Now()
	log.Info("running batch", "batch", sum.BatchLabel, "tasks", len(tasks), "total_tasks", len(all), "run_id", sum.RunID)

	path, rows, err := execute(ctx, opts, tasks, sum.BatchLabel)
	sum.Elapsed = clock.Since(start)
	if err != nil {
		log.Error("batch failed", "batch", sum.BatchLabel, "error", err)
		if opts.Recorder != nil && sum.RunID != "" {
			if lerr := opts.Recorder.FailRun(context.WithoutCancel(ctx), sum.RunID, err); lerr != nil {
				log.Warn("failed to record batch failure", "run_id", sum.RunID, "error", lerr)
			}
		}
		return sum, err
	}

	sum.Path = path
	sum.Rows = rows
	if opts.Recorder != nil && sum.RunID != "" {
		if err := opts.Recorder.CompleteRun(ctx, sum.RunID, rows, path); err != nil {
			return sum, fmt.Errorf("record run completion: %w", err)
		}
	}
	log.Info("batch finished", "batch", sum.BatchLabel, "rows", rows, "path", path, "elapsed", sum.Elapsed)
	return sum, nil
}

func execute(ctx context.Context, opts Options, tasks []sweep.Task, label string) (string, int, error) {
	outcomes, err := opts.Runner.Run(ctx, tasks)
	if err != nil {
		return "", 0, err
	}
	if len(outcomes) != len(tasks) {
		return "", 0, fmt.Errorf("runner returned %d outcomes for %d tasks", len(outcomes), len(tasks))
	}
	records, err := simulation.Records(outcomes)
	if err != nil {
		return "", 0, err
	}
	ds := dataset.Assemble(records)
	path, err := opts.Store.WriteBatch(ds, label)
	if err != nil {
		return "", 0, err
	}
	return path, ds.Len(), nil
}
