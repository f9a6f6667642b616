// Package testutil provides shared test fixtures for the sweep packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/joint-strength/internal/config"
)

// SmallPlan is a one-study, one-muscle plan that expands to three tasks with
// secondary values 0, 45 and 90. The secondary DOF has sign -1 so sign
// correction is visible in assembled rows.
func SmallPlan() *config.SweepConfig {
	return &config.SweepConfig{
		Studies: []config.StudyPlan{{Name: "KneeFlexion", Label: "Knee flexion", PrimaryDof: "KneeFlexion", SecondaryDof: "HipFlexion"}},
		Dofs: map[string]config.DofInfo{
			"KneeFlexion": {Label: "Knee extension(-)/flexion(+)", Sign: 1},
			"HipFlexion":  {Label: "Hip extension(-)/flexion(+)", Sign: -1},
		},
		RangeOfMotion:    map[string][2]float64{"KneeFlexion": {0, 160}},
		SecondarySamples: map[string]config.SampleTable{"HipFlexion": {Values: []float64{0, 45, 90}}},
		MuscleModels:     []string{"Simple"},
	}
}

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
