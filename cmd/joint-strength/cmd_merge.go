package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/joint-strength/internal/monitoring"
)

func newMergeCmd(opts *globalOptions) *cobra.Command {
	var inputPattern, output string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Concatenate batch files into one dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}
			store := opts.store(cfg)
			if inputPattern == "" {
				inputPattern = store.DefaultPattern()
			}
			if output == "" {
				output = store.DefaultOutput()
			}
			if err := checkOutputPath(cfg, output); err != nil {
				return err
			}

			res, err := store.MergeAll(cmd.Context(), inputPattern, output)
			if err != nil {
				return err
			}

			l, err := opts.openLedger()
			if err != nil {
				return err
			}
			if l != nil {
				defer l.Close()
				if _, err := l.RecordMerge(cmd.Context(), inputPattern, res.Output, len(res.Files), res.Rows); err != nil {
					monitoring.Logger().Warn("failed to record merge", "error", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "merged %d files (%d rows) into %s\n", len(res.Files), res.Rows, res.Output)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPattern, "input-pattern", "", "Glob of batch files to merge (default <merged-name>_*.<ext>)")
	cmd.Flags().StringVar(&output, "output", "", "Merged file (default <merged-name>.<ext>)")
	return cmd
}
