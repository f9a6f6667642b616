package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCleanupCmd(opts *globalOptions) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete batch files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(nil)
			if err != nil {
				return err
			}
			store := opts.store(cfg)
			if pattern == "" {
				pattern = store.DefaultPattern()
			}
			if err := checkOutputPath(cfg, filepath.Dir(pattern)); err != nil {
				return err
			}
			removed, err := store.Cleanup(pattern)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files\n", len(removed))
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob of files to delete (default <merged-name>_*.<ext>)")
	return cmd
}
