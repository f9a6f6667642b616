// Command joint-strength drives the joint-strength parameter sweep: it runs
// batches of simulator tasks, merges and cleans up the batch files, and
// renders static strength curves.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/dataset"
	"github.com/banshee-data/joint-strength/internal/failures"
	"github.com/banshee-data/joint-strength/internal/fsutil"
	"github.com/banshee-data/joint-strength/internal/ledger"
	"github.com/banshee-data/joint-strength/internal/monitoring"
	"github.com/banshee-data/joint-strength/internal/security"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runCLI(ctx, &globalOptions{}, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// runCLI executes the command line and closes the log file afterwards,
// including when the command failed.
func runCLI(ctx context.Context, opts *globalOptions, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil && opts.closeLog != nil && opts.logFile != "" {
		monitoring.Logger().Error("command failed", "error", err)
	}
	return errors.Join(err, opts.closeLogFile())
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFile    string
	ledgerPath string
	outDir     string

	closeLog func() error
}

func (o *globalOptions) closeLogFile() error {
	if o.closeLog == nil {
		return nil
	}
	closeLog := o.closeLog
	o.closeLog = nil
	return closeLog()
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "joint-strength",
		Short: "Batch joint-strength sweeps against the AnyBody console",
		Long: `joint-strength expands the joint-strength sweep plan into simulator tasks,
runs one batch of them, and writes the sign-corrected results as a Parquet
file per batch. Batch files can then be merged into one dataset and removed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := monitoring.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logger, closeLog, err := monitoring.SetupLogger(cmd.ErrOrStderr(), opts.logFile, level)
			if err != nil {
				return err
			}
			monitoring.SetLogger(logger)
			opts.closeLog = closeLog
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Sweep configuration file (.yaml, .yml or .json); built-in plan when empty")
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&opts.logFile, "log-file", "", "Also write JSON logs to this file")
	pf.StringVar(&opts.ledgerPath, "ledger", "", "SQLite run ledger; runs are not recorded when empty")
	pf.StringVar(&opts.outDir, "out-dir", "", "Override the output directory of the configuration")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newTasksCmd(opts),
		newCalibrateCmd(opts),
		newMergeCmd(opts),
		newCleanupCmd(opts),
		newPlotCmd(opts),
		newRunsCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig returns the configured sweep plan with sample overrides
// ("DOF=spec") applied.
func (o *globalOptions) loadConfig(sampleOverrides []string) (*config.SweepConfig, error) {
	var cfg *config.SweepConfig
	if o.configPath == "" {
		cfg = config.Default()
	} else {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}

	if len(sampleOverrides) > 0 {
		overrides := make(map[string]config.SampleTable, len(sampleOverrides))
		for _, s := range sampleOverrides {
			name, table, err := sweep.ParseSampleOverride(s)
			if err != nil {
				return nil, err
			}
			overrides[name] = table
		}
		cfg = cfg.WithSamples(overrides)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *globalOptions) store(cfg *config.SweepConfig) *dataset.Store {
	return dataset.NewStore(fsutil.OSFileSystem{}, cfg.Output)
}

// checkOutputPath rejects destructive or written paths outside the output
// directory.
func checkOutputPath(cfg *config.SweepConfig, path string) error {
	dir := cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	if err := security.CheckWithinDir(path, dir); err != nil {
		return &failures.ConfigurationError{Code: failures.CodeUnsafePath, Message: "refusing to touch " + path, Cause: err}
	}
	return nil
}

// openLedger opens the run ledger, or returns nil when none is configured.
func (o *globalOptions) openLedger() (*ledger.Ledger, error) {
	if o.ledgerPath == "" {
		return nil, nil
	}
	return ledger.Open(o.ledgerPath)
}
