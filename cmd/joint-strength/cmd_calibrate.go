package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/joint-strength/internal/simulation"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

func newCalibrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calibrate",
		Short: "Calibrate every muscle model and save its values file",
		Long: `Calibrate runs the calibration sequence once per muscle model and saves
<model>_calibration.anyset in the simulator working directory. Run tasks load
these files, so calibrate before the first batch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}
			tasks := sweep.GenerateCalibrations(cfg)
			if err := simulation.NewExecRunner(cfg.Simulation).Calibrate(cmd.Context(), tasks); err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintln(cmd.OutOrStdout(), t.ValuesFile())
			}
			return nil
		},
	}
}
