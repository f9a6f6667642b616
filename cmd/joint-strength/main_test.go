package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/dataset"
	"github.com/banshee-data/joint-strength/internal/fsutil"
	"github.com/banshee-data/joint-strength/internal/monitoring"
	"github.com/banshee-data/joint-strength/internal/testutil"
)

const smallPlan = `studies:
  - name: KneeFlexion
    label: Knee flexion
    primary_dof: KneeFlexion
    secondary_dof: HipFlexion
range_of_motion:
  KneeFlexion: [0, 160]
secondary_samples:
  HipFlexion:
    values: [0, 45, 90]
muscle_models: [Simple, 3E_1Par]
`

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	original := monitoring.Logger()
	t.Cleanup(func() { monitoring.SetLogger(original) })

	var out, errOut bytes.Buffer
	err := runCLI(context.Background(), &globalOptions{}, args, &out, &errOut)
	return out.String(), err
}

func writePlan(t *testing.T, dir string) string {
	return testutil.WriteFile(t, dir, "plan.yaml", smallPlan)
}

func TestTasksCommand(t *testing.T) {
	plan := writePlan(t, t.TempDir())

	out, err := execute(t, "tasks", "--config", plan)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Contains(t, lines[0], "INDEX")
	assert.Contains(t, lines[1], "KneeFlexion")
	assert.Contains(t, lines[4], "3E_1Par")
	assert.Equal(t, "6 of 6 tasks", lines[7])
}

func TestTasksCommandBatch(t *testing.T) {
	plan := writePlan(t, t.TempDir())

	out, err := execute(t, "tasks", "--config", plan, "--batch", "2", "--num-batches", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 6 tasks")

	_, err = execute(t, "tasks", "--config", plan, "--batch", "1", "--num-batches", "7")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than the number of tasks")
}

func TestTasksCommandSampleOverride(t *testing.T) {
	plan := writePlan(t, t.TempDir())

	out, err := execute(t, "tasks", "--config", plan, "--sample", "HipFlexion=0:90:4")
	require.NoError(t, err)
	assert.Contains(t, out, "8 of 8 tasks")

	_, err = execute(t, "tasks", "--config", plan, "--sample", "HipFlexion")
	assert.Error(t, err)
}

func TestDefaultPlanTasks(t *testing.T) {
	out, err := execute(t, "tasks", "--batch", "100", "--num-batches", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "19 of 1920 tasks")
}

func TestMergeAndCleanupCommands(t *testing.T) {
	dir := t.TempDir()
	plan := writePlan(t, dir)

	_, err := execute(t, "merge", "--config", plan, "--out-dir", dir)
	require.Error(t, err, "merge without batch files must fail")

	store := dataset.NewStore(fsutil.OSFileSystem{}, config.OutputConfig{Dir: dir})
	for _, label := range []string{"1", "2"} {
		ds := &dataset.Dataset{Rows: []dataset.Row{{MeasureObject: "Knee flexion", AnyBodyMuscleType: "Simple", MeasureValue: 1}}}
		_, err := store.WriteBatch(ds, label)
		require.NoError(t, err)
	}

	ledgerPath := filepath.Join(dir, "ledger.db")
	out, err := execute(t, "merge", "--config", plan, "--out-dir", dir, "--ledger", ledgerPath)
	require.NoError(t, err)
	assert.Contains(t, out, "merged 2 files (2 rows)")
	assert.FileExists(t, filepath.Join(dir, "joint_strength.parquet"))

	out, err = execute(t, "cleanup", "--config", plan, "--out-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 2 files")
	assert.FileExists(t, filepath.Join(dir, "joint_strength.parquet"))

	out, err = execute(t, "cleanup", "--config", plan, "--out-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 files")
}

func TestPlotCommand(t *testing.T) {
	dir := t.TempDir()
	plan := writePlan(t, dir)

	store := dataset.NewStore(fsutil.OSFileSystem{}, config.OutputConfig{Dir: dir})
	var rows []dataset.Row
	for _, second := range []float64{0, 45} {
		for _, angle := range []float64{0, 80, 160} {
			rows = append(rows, dataset.Row{
				MeasurePrimaryDoF: angle,
				MeasureSecondDoF:  second,
				MeasureValue:      100 - angle/4,
				MeasureObject:     "Knee flexion",
				AnyBodyMuscleType: "Simple",
			})
		}
	}
	input, err := store.WriteBatch(&dataset.Dataset{Rows: rows}, "1")
	require.NoError(t, err)

	plots := filepath.Join(dir, "plots")
	out, err := execute(t, "plot", "--config", plan, "--out-dir", dir, "--input", input, "--dir", plots)
	require.NoError(t, err)

	want := filepath.Join(plots, "knee_flexion__simple.png")
	assert.Equal(t, want, strings.TrimSpace(out))
	assert.FileExists(t, want)

	_, err = execute(t, "plot", "--config", plan, "--out-dir", dir, "--dir", plots)
	assert.Error(t, err, "plot without a merged dataset must fail")
}

func TestCleanupRefusesOutsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	plan := writePlan(t, dir)
	outside := t.TempDir()
	victim := filepath.Join(outside, "keep_1.parquet")
	require.NoError(t, os.WriteFile(victim, []byte("x"), 0o644))

	_, err := execute(t, "cleanup", "--config", plan, "--out-dir", dir, "--pattern", filepath.Join(outside, "*.parquet"))
	require.Error(t, err)
	assert.FileExists(t, victim)

	_, err = execute(t, "merge", "--config", plan, "--out-dir", dir, "--output", filepath.Join(outside, "merged.parquet"))
	assert.Error(t, err)
}

func TestLogFileClosedAfterFailure(t *testing.T) {
	original := monitoring.Logger()
	t.Cleanup(func() { monitoring.SetLogger(original) })

	dir := t.TempDir()
	plan := writePlan(t, dir)
	logFile := filepath.Join(dir, "run.log")

	opts := &globalOptions{}
	var out, errOut bytes.Buffer
	err := runCLI(context.Background(), opts,
		[]string{"merge", "--config", plan, "--out-dir", dir, "--log-file", logFile}, &out, &errOut)
	require.Error(t, err)
	assert.Nil(t, opts.closeLog, "log file must be closed after a failing command")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"command failed"`)
	assert.Contains(t, string(data), "no files match")
}

func TestRunsRequiresLedger(t *testing.T) {
	_, err := execute(t, "runs")
	assert.Error(t, err)

	out, err := execute(t, "runs", "--ledger", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "joint-strength "))
}

func TestBadLogLevel(t *testing.T) {
	_, err := execute(t, "version", "--log-level", "loud")
	assert.Error(t, err)
}
