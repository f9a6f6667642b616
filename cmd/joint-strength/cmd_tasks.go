package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/joint-strength/internal/sweep"
)

func newTasksCmd(opts *globalOptions) *cobra.Command {
	var (
		batchIndex int
		numBatches int
		samples    []string
	)

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the tasks of the sweep or of one batch without running them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(samples)
			if err != nil {
				return err
			}
			all, err := sweep.Generate(cfg)
			if err != nil {
				return err
			}
			tasks, err := sweep.SelectBatch(all, batchIndex, numBatches)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INDEX\tSTUDY\tMUSCLE\tSECONDARY\tVALUE")
			for _, t := range tasks {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.Index, t.Study, t.MuscleModel, t.SecondaryDof,
					strconv.FormatFloat(t.SecondaryDofValue, 'g', 6, 64))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d tasks\n", len(tasks), len(all))
			return nil
		},
	}

	cmd.Flags().IntVar(&batchIndex, "batch", 0, "Batch to list (1-based)")
	cmd.Flags().IntVar(&numBatches, "num-batches", 0, "Total number of batches")
	cmd.Flags().StringArrayVar(&samples, "sample", nil, "Override a secondary DOF sample table, DOF=start:stop:count or DOF=v1,v2,...")
	return cmd
}
