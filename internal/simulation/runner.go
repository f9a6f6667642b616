// Package simulation runs sweep tasks against the external joint-strength
// simulator and reports one outcome per task.
package simulation

import (
	"context"

	"github.com/banshee-data/joint-strength/internal/dataset"
	"github.com/banshee-data/joint-strength/internal/failures"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

// Runner executes a batch of tasks. Outcomes are returned in submission
// order, one per task. The error return is reserved for problems that stop
// the whole batch, such as a cancelled context or a missing executable;
// individual task failures are reported through Outcome.Err.
type Runner interface {
	Run(ctx context.Context, tasks []sweep.Task) ([]Outcome, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, tasks []sweep.Task) ([]Outcome, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, tasks []sweep.Task) ([]Outcome, error) {
	return f(ctx, tasks)
}

// Failure is the simulator's error output for one task, kept verbatim.
type Failure struct {
	Payload string
}

// Outcome is the result of one task: its records, or a failure.
type Outcome struct {
	Task    sweep.Task
	Records []dataset.Record
	Err     *Failure
}

// Failed reports whether the task failed.
func (o Outcome) Failed() bool { return o.Err != nil }

// CheckOutcomes returns a SimulationFailure for the first failed outcome in
// order, or nil when every task succeeded.
func CheckOutcomes(outcomes []Outcome) error {
	for _, o := range outcomes {
		if o.Failed() {
			return &failures.SimulationFailure{
				TaskIndex: o.Task.Index,
				Task:      o.Task.String(),
				Payload:   o.Err.Payload,
			}
		}
	}
	return nil
}

// Records checks outcomes and concatenates their records in task order.
func Records(outcomes []Outcome) ([]dataset.Record, error) {
	if err := CheckOutcomes(outcomes); err != nil {
		return nil, err
	}
	n := 0
	for _, o := range outcomes {
		n += len(o.Records)
	}
	out := make([]dataset.Record, 0, n)
	for _, o := range outcomes {
		out = append(out, o.Records...)
	}
	return out, nil
}
