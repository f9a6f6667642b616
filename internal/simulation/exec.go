package simulation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/failures"
	"github.com/banshee-data/joint-strength/internal/monitoring"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

// macroPlaceholder in SimulationConfig.Args is replaced by the macro path.
const macroPlaceholder = "{macro}"

// ExecRunner runs each task as one invocation of the simulator console
// application, up to NumProcesses at a time.
type ExecRunner struct {
	cfg config.SimulationConfig
}

// NewExecRunner creates a runner for the given simulator settings.
func NewExecRunner(cfg config.SimulationConfig) *ExecRunner {
	if cfg.NumProcesses < 1 {
		cfg.NumProcesses = 1
	}
	return &ExecRunner{cfg: cfg}
}

// Run executes tasks concurrently and returns their outcomes in task order.
// A failing task does not stop the others.
func (r *ExecRunner) Run(ctx context.Context, tasks []sweep.Task) ([]Outcome, error) {
	scratch, err := os.MkdirTemp("", "joint-strength-macros-")
	if err != nil {
		return nil, fmt.Errorf("create macro directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	log := monitoring.Logger()
	outcomes := make([]Outcome, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.NumProcesses)
	for i, task := range tasks {
		g.Go(func() error {
			macroPath := filepath.Join(scratch, fmt.Sprintf("task_%06d.anymcr", task.Index))
			console, err := r.execute(gctx, macroPath, TaskMacro(r.cfg, task))
			if err != nil {
				return err
			}

			outcome := Outcome{Task: task}
			if console.failure != nil {
				outcome.Err = console.failure
			} else if records, err := taskRecords(r.cfg, task, console.output); err != nil {
				outcome.Err = &Failure{Payload: err.Error()}
			} else {
				outcome.Records = records
			}
			outcomes[i] = outcome

			if outcome.Failed() {
				log.Warn("task failed", "task", task.Index, "desc", task.String())
			} else {
				log.Debug("task finished", "task", task.Index, "rows", len(outcome.Records))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Calibrate runs the calibration of every muscle model, saving one values
// file per model. It stops at the first failure.
func (r *ExecRunner) Calibrate(ctx context.Context, tasks []sweep.CalibrationTask) error {
	scratch, err := os.MkdirTemp("", "joint-strength-calibration-")
	if err != nil {
		return fmt.Errorf("create macro directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	failed := make([]*Failure, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.NumProcesses)
	for i, task := range tasks {
		g.Go(func() error {
			macroPath := filepath.Join(scratch, fmt.Sprintf("calibrate_%s.anymcr", task.MuscleModel))
			console, err := r.execute(gctx, macroPath, CalibrationMacro(r.cfg, task))
			if err != nil {
				return err
			}
			failed[i] = console.failure
			monitoring.Logger().Info("calibration finished", "muscle_model", task.MuscleModel, "ok", console.failure == nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, f := range failed {
		if f != nil {
			return &failures.SimulationFailure{
				TaskIndex: i,
				Task:      "calibration muscle=" + tasks[i].MuscleModel,
				Payload:   f.Payload,
			}
		}
	}
	return nil
}

type consoleResult struct {
	output  ConsoleOutput
	failure *Failure
}

// execute writes the macro and runs the simulator on it. Model errors and
// non-zero exits become a failure; only problems starting the process or a
// cancelled context are returned as errors.
func (r *ExecRunner) execute(ctx context.Context, macroPath string, macro Macro) (consoleResult, error) {
	if err := os.WriteFile(macroPath, []byte(macro.String()), 0o644); err != nil {
		return consoleResult{}, fmt.Errorf("write macro: %w", err)
	}

	args := make([]string, len(r.cfg.Args))
	for i, a := range r.cfg.Args {
		args[i] = strings.ReplaceAll(a, macroPlaceholder, macroPath)
	}

	cmd := newCommand(ctx, r.cfg.Executable, args...)
	cmd.Dir = r.cfg.WorkDir
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return consoleResult{}, ctx.Err()
	}

	text := buf.String()
	res := consoleResult{output: ParseConsole(text)}
	switch {
	case runErr == nil && !res.output.Failed():
	case res.output.Failed():
		res.failure = &Failure{Payload: strings.Join(res.output.Errors, "\n")}
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return consoleResult{}, fmt.Errorf("run %s: %w", r.cfg.Executable, runErr)
		}
		payload := strings.TrimSpace(text)
		if payload == "" {
			payload = exitErr.Error()
		}
		res.failure = &Failure{Payload: payload}
	}
	return res, nil
}
