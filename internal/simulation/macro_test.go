package simulation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Executable:           "AnyBodyCon.exe",
		Args:                 []string{"-m", "{macro}", "/ni"},
		MainFile:             "EvaluateJointStrength.main.any",
		ModelPath:            "Main.HumanModel.EvaluateJointStrength.Right.Leg",
		CalibrationOperation: "Main.HumanModel.Calibration.CalibrationSequence",
		NumProcesses:         2,
	}
}

func TestTaskMacro(t *testing.T) {
	task := sweep.Task{
		Study:             "HipExtension",
		MuscleModel:       "3E_1Par",
		SecondaryDof:      "KneeFlexion",
		SecondaryDofValue: 12.5,
		RangeOfMotion:     [2]float64{130, -5},
	}
	study := "Main.HumanModel.EvaluateJointStrength.Right.Leg.HipExtension"
	want := Macro{
		`load "EvaluateJointStrength.main.any"`,
		`classoperation Main "Load Values" --file="3E_1Par_calibration.anyset"`,
		`classoperation Main "Update Values"`,
		`classoperation ` + study + `.RangeOfMotion "Set Value" --value="{130, -5}"`,
		`classoperation ` + study + `.KneeFlexion "Set Value" --value="12.5"`,
		`operation ` + study + `.Study.InverseDynamics`,
		`run`,
		`classoperation ` + study + `.Study.Output.JointStrength.Abscissa.JointAngle "Dump"`,
		`classoperation ` + study + `.Study.Output.JointStrength.JointStrength "Dump"`,
		`classoperation Main.AMMRGitBranch "Dump"`,
		`classoperation Main.AMMRGitHash "Dump"`,
		`classoperation Main.AnyBodyVersion "Dump"`,
		`exit`,
	}
	if diff := cmp.Diff(want, TaskMacro(testSimConfig(), task)); diff != "" {
		t.Errorf("TaskMacro mismatch (-want +got):\n%s", diff)
	}
}

func TestCalibrationMacro(t *testing.T) {
	got := CalibrationMacro(testSimConfig(), sweep.CalibrationTask{MuscleModel: "Simple"}).String()
	want := strings.Join([]string{
		`load "EvaluateJointStrength.main.any"`,
		`operation Main.HumanModel.Calibration.CalibrationSequence`,
		`run`,
		`classoperation Main "Save Values" --file="Simple_calibration.anyset"`,
		`exit`,
	}, "\n") + "\n"
	if got != want {
		t.Errorf("CalibrationMacro =\n%s\nwant\n%s", got, want)
	}
}
