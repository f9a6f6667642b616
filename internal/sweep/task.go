// Package sweep expands a sweep plan into simulation tasks and partitions the
// task list into balanced batches.
package sweep

import (
	"fmt"
	"strconv"
)

// Task is one simulator invocation: a study evaluated with one muscle model
// at one secondary DOF sample. Tasks are created by Generate and never
// modified afterwards.
type Task struct {
	// Index is the position of the task in the full, unpartitioned list.
	Index int

	Study             string
	MuscleModel       string
	SecondaryDofValue float64

	PrimaryDof    string
	SecondaryDof  string
	RangeOfMotion [2]float64

	// Labels and signs resolved from the DOF table at generation time.
	MeasureObject     string
	PrimaryDofLabel   string
	SecondaryDofLabel string
	PrimarySign       float64
	SecondarySign     float64
}

// String identifies the task in logs and error messages.
func (t Task) String() string {
	return fmt.Sprintf("study=%s muscle=%s %s=%s",
		t.Study, t.MuscleModel, t.SecondaryDof, strconv.FormatFloat(t.SecondaryDofValue, 'g', -1, 64))
}

// CalibrationTask calibrates one muscle model and saves the calibrated values
// so later tasks can load them.
type CalibrationTask struct {
	MuscleModel string
}

// ValuesFile is the file the calibrated values are saved to and loaded from.
func (c CalibrationTask) ValuesFile() string {
	return CalibrationFile(c.MuscleModel)
}

// CalibrationFile names the saved calibration of a muscle model.
func CalibrationFile(muscleModel string) string {
	return muscleModel + "_calibration.anyset"
}
