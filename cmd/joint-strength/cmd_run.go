package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/joint-strength/internal/batch"
	"github.com/banshee-data/joint-strength/internal/simulation"
)

func newRunCmd(opts *globalOptions) *cobra.Command {
	var (
		batchIndex int
		numBatches int
		samples    []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one batch of the sweep and write its results",
		Long: `Run generates the full task list, selects one batch and runs it against the
simulator. Results are written only when every task of the batch succeeded.
Without --batch and --num-batches the whole task list is one batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(samples)
			if err != nil {
				return err
			}
			l, err := opts.openLedger()
			if err != nil {
				return err
			}
			runOpts := batch.Options{
				Config:     cfg,
				Batch:      batchIndex,
				NumBatches: numBatches,
				Runner:     simulation.NewExecRunner(cfg.Simulation),
				Store:      opts.store(cfg),
			}
			if l != nil {
				defer l.Close()
				runOpts.Recorder = l
			}

			sum, err := batch.Run(cmd.Context(), runOpts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows from %d tasks to %s\n", sum.Rows, sum.Tasks, sum.Path)
			return nil
		},
	}

	cmd.Flags().IntVar(&batchIndex, "batch", 0, "Batch to run (1-based)")
	cmd.Flags().IntVar(&numBatches, "num-batches", 0, "Total number of batches")
	cmd.Flags().StringArrayVar(&samples, "sample", nil, "Override a secondary DOF sample table, DOF=start:stop:count or DOF=v1,v2,...")
	return cmd
}
