package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List batch runs recorded in the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.openLedger()
			if err != nil {
				return err
			}
			if l == nil {
				return errors.New("runs: --ledger is required")
			}
			defer l.Close()

			runs, err := l.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tBATCH\tTASKS\tROWS\tSTATUS\tSTARTED\tDURATION\tERROR")
			for _, r := range runs {
				duration := "-"
				if r.FinishedAt != nil {
					duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				batch := r.BatchLabel
				if r.TotalBatches > 0 {
					batch = fmt.Sprintf("%d/%d", r.BatchIndex, r.TotalBatches)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n", r.RunID, batch, r.TaskCount, r.RowCount,
					r.Status, r.StartedAt.Format(time.RFC3339), duration, r.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list; 0 lists all")
	return cmd
}
