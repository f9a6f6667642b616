//go:build unix

package simulation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/joint-strength/internal/failures"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

// fakeConsole mimics the simulator: it reads the macro named by its second
// argument and dumps three joint angle samples. Secondary value 2 reports a
// model error, value 3 exits non-zero, value 4 dumps empty arrays and value 5
// dumps two samples with each array on the line after its name.
const fakeConsole = `#!/bin/sh
m="$2"
study=$(sed -n 's/^operation \(.*\)\.Study\.InverseDynamics$/\1/p' "$m")
if grep -q -- '--value="2"' "$m"; then
  echo "ERROR(OBJ.MCH.KIN3) : failed to converge"
  exit 0
fi
if grep -q -- '--value="3"' "$m"; then
  echo "license server unavailable" >&2
  exit 3
fi
if grep -q -- '--value="4"' "$m"; then
  echo "$study.Study.Output.JointStrength.Abscissa.JointAngle = {};"
  echo "$study.Study.Output.JointStrength.JointStrength = {};"
  exit 0
fi
if grep -q -- '--value="5"' "$m"; then
  echo "$study.Study.Output.JointStrength.Abscissa.JointAngle ="
  echo "{0.0, 10.0};"
  echo "$study.Study.Output.JointStrength.JointStrength ="
  echo "{100.0, 110.0};"
  exit 0
fi
if grep -q 'Save Values' "$m"; then
  exit 0
fi
echo "$study.Study.Output.JointStrength.Abscissa.JointAngle = {0.0, 10.0, 20.0};"
echo "$study.Study.Output.JointStrength.JointStrength = {100.0, 110.0, 120.0};"
echo 'Main.AMMRGitBranch = "master";'
echo 'Main.AMMRGitHash = "deadbeef";'
echo 'Main.AnyBodyVersion = "8.0.4";'
`

func fakeRunner(t *testing.T) *ExecRunner {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fakecon.sh")
	require.NoError(t, os.WriteFile(script, []byte(fakeConsole), 0o755))

	cfg := testSimConfig()
	cfg.Executable = script
	cfg.Args = []string{"-m", "{macro}"}
	cfg.WorkDir = dir
	cfg.NumProcesses = 3
	return NewExecRunner(cfg)
}

func TestExecRunnerPreservesOrder(t *testing.T) {
	r := fakeRunner(t)
	tasks := testTasks(8)
	for i := range tasks {
		tasks[i].SecondaryDofValue = float64(10 + i)
	}

	outcomes, err := r.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, outcomes, len(tasks))

	for i, o := range outcomes {
		assert.Equal(t, tasks[i].Index, o.Task.Index)
		require.False(t, o.Failed(), "task %d failed: %+v", i, o.Err)
		require.Len(t, o.Records, 3)
		rec := o.Records[1]
		assert.Equal(t, 10.0, rec.MeasurePrimaryDoF)
		assert.Equal(t, 110.0, rec.MeasureValue)
		assert.Equal(t, tasks[i].SecondaryDofValue, rec.MeasureSecondDoF)
		assert.Equal(t, "Knee flexion", rec.MeasureObject)
		assert.Equal(t, "Simple", rec.AnyBodyMuscleType)
		assert.Equal(t, "deadbeef", rec.AMMRGitHash)
		assert.Equal(t, "8.0.4", rec.AnyBodyVersion)
		assert.Equal(t, 1.0, rec.MeasurePrimaryDoFSign)
	}
}

func TestExecRunnerReportsFailures(t *testing.T) {
	r := fakeRunner(t)
	tasks := testTasks(4) // secondary values 0..3

	outcomes, err := r.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.False(t, outcomes[0].Failed())
	assert.False(t, outcomes[1].Failed())
	require.True(t, outcomes[2].Failed())
	assert.Equal(t, "ERROR(OBJ.MCH.KIN3) : failed to converge", outcomes[2].Err.Payload)
	require.True(t, outcomes[3].Failed())
	assert.Equal(t, "license server unavailable", outcomes[3].Err.Payload)

	var sf *failures.SimulationFailure
	require.True(t, errors.As(CheckOutcomes(outcomes), &sf))
	assert.Equal(t, 2, sf.TaskIndex)
}

func TestExecRunnerDumpShapes(t *testing.T) {
	r := fakeRunner(t)
	tasks := testTasks(6)[4:]

	outcomes, err := r.Run(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	require.True(t, outcomes[0].Failed(), "empty dump must fail the task")
	assert.Contains(t, outcomes[0].Err.Payload, "empty output")
	assert.Empty(t, outcomes[0].Records)

	require.False(t, outcomes[1].Failed(), "task failed: %+v", outcomes[1].Err)
	require.Len(t, outcomes[1].Records, 2)
	assert.Equal(t, 10.0, outcomes[1].Records[1].MeasurePrimaryDoF)
	assert.Equal(t, 110.0, outcomes[1].Records[1].MeasureValue)
}

func TestExecRunnerMissingExecutable(t *testing.T) {
	cfg := testSimConfig()
	cfg.Executable = filepath.Join(t.TempDir(), "does-not-exist")
	r := NewExecRunner(cfg)

	_, err := r.Run(context.Background(), testTasks(2))
	require.Error(t, err)
	assert.False(t, errors.Is(err, failures.ErrSimulationFailure))
}

func TestExecRunnerCancelled(t *testing.T) {
	r := fakeRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, testTasks(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecRunnerCalibrate(t *testing.T) {
	r := fakeRunner(t)
	err := r.Calibrate(context.Background(), []sweep.CalibrationTask{{MuscleModel: "Simple"}, {MuscleModel: "3E_1Par"}})
	assert.NoError(t, err)
}
