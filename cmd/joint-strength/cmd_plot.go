package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/joint-strength/internal/report"
)

func newPlotCmd(opts *globalOptions) *cobra.Command {
	var input, dir string

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render strength curves from a dataset file as PNGs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}
			store := opts.store(cfg)
			if input == "" {
				input = store.DefaultOutput()
			}
			ds, err := store.ReadFile(cmd.Context(), input)
			if err != nil {
				return err
			}
			paths, err := report.Render(ds, dir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Dataset file (default the merged dataset)")
	cmd.Flags().StringVar(&dir, "dir", "plots", "Directory for the PNG files")
	return cmd
}
