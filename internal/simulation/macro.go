package simulation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

// Exported simulator variables, relative to a study.
const (
	jointAngleVar    = "Study.Output.JointStrength.Abscissa.JointAngle"
	jointStrengthVar = "Study.Output.JointStrength.JointStrength"
)

// Global provenance variables dumped after every task.
const (
	ammrBranchVar     = "Main.AMMRGitBranch"
	ammrHashVar       = "Main.AMMRGitHash"
	anybodyVersionVar = "Main.AnyBodyVersion"
)

// Macro is an ordered list of console macro commands.
type Macro []string

// String renders the macro as a script, one command per line.
func (m Macro) String() string {
	return strings.Join(m, "\n") + "\n"
}

func load(mainFile string) string {
	return fmt.Sprintf("load %q", mainFile)
}

func classOperation(target, op string, args ...string) string {
	cmd := fmt.Sprintf("classoperation %s %q", target, op)
	for _, a := range args {
		cmd += " " + a
	}
	return cmd
}

func setValue(target, value string) string {
	return classOperation(target, "Set Value", fmt.Sprintf("--value=%q", value))
}

func dump(target string) string {
	return classOperation(target, "Dump")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatArray(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// studyPath is the model path of the study a task evaluates.
func studyPath(cfg config.SimulationConfig, t sweep.Task) string {
	return cfg.ModelPath + "." + t.Study
}

// TaskMacro renders the macro for one sweep task: load the model, apply the
// muscle model calibration, set the range of motion and the secondary DOF,
// run inverse dynamics and dump the outputs.
func TaskMacro(cfg config.SimulationConfig, t sweep.Task) Macro {
	study := studyPath(cfg, t)
	return Macro{
		load(cfg.MainFile),
		classOperation("Main", "Load Values", fmt.Sprintf("--file=%q", sweep.CalibrationFile(t.MuscleModel))),
		classOperation("Main", "Update Values"),
		setValue(study+".RangeOfMotion", formatArray(t.RangeOfMotion[0], t.RangeOfMotion[1])),
		setValue(study+"."+t.SecondaryDof, formatFloat(t.SecondaryDofValue)),
		"operation " + study + ".Study.InverseDynamics",
		"run",
		dump(study + "." + jointAngleVar),
		dump(study + "." + jointStrengthVar),
		dump(ammrBranchVar),
		dump(ammrHashVar),
		dump(anybodyVersionVar),
		"exit",
	}
}

// CalibrationMacro renders the macro that calibrates one muscle model and
// saves the calibrated values.
func CalibrationMacro(cfg config.SimulationConfig, c sweep.CalibrationTask) Macro {
	return Macro{
		load(cfg.MainFile),
		"operation " + cfg.CalibrationOperation,
		"run",
		classOperation("Main", "Save Values", fmt.Sprintf("--file=%q", c.ValuesFile())),
		"exit",
	}
}
