package sweep

import (
	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/failures"
)

// Generate expands the sweep plan into the ordered task list: studies in
// declaration order, then muscle models, then secondary DOF samples in table
// order. The whole plan is validated first, so a missing lookup entry fails
// before any task is produced.
func Generate(cfg *config.SweepConfig) ([]Task, error) {
	if cfg == nil {
		return nil, failures.Configf(failures.CodeEmptyPlan, "no sweep configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	type resolved struct {
		study     config.StudyPlan
		primary   config.DofInfo
		secondary config.DofInfo
		rom       [2]float64
		samples   []float64
	}

	plans := make([]resolved, 0, len(cfg.Studies))
	total := 0
	for _, study := range cfg.Studies {
		primary, ok := cfg.Dof(study.PrimaryDof)
		if !ok {
			return nil, failures.Configf(failures.CodeUnknownDof, "study %q: primary dof %q not in dof table", study.Name, study.PrimaryDof)
		}
		secondary, ok := cfg.Dof(study.SecondaryDof)
		if !ok {
			return nil, failures.Configf(failures.CodeUnknownDof, "study %q: secondary dof %q not in dof table", study.Name, study.SecondaryDof)
		}
		rom, ok := cfg.RangeFor(study)
		if !ok {
			return nil, failures.Configf(failures.CodeMissingRange, "study %q: no range of motion", study.Name)
		}
		samples, ok := cfg.Samples(study.SecondaryDof)
		if !ok || len(samples) == 0 {
			return nil, failures.Configf(failures.CodeMissingSamples, "study %q: no samples for secondary dof %q", study.Name, study.SecondaryDof)
		}
		plans = append(plans, resolved{study, primary, secondary, rom, samples})
		total += len(samples) * len(cfg.MuscleModels)
	}

	tasks := make([]Task, 0, total)
	for _, p := range plans {
		label := p.study.Label
		if label == "" {
			label = p.study.Name
		}
		for _, muscle := range cfg.MuscleModels {
			for _, value := range p.samples {
				tasks = append(tasks, Task{
					Index:             len(tasks),
					Study:             p.study.Name,
					MuscleModel:       muscle,
					SecondaryDofValue: value,
					PrimaryDof:        p.study.PrimaryDof,
					SecondaryDof:      p.study.SecondaryDof,
					RangeOfMotion:     p.rom,
					MeasureObject:     label,
					PrimaryDofLabel:   p.primary.Label,
					SecondaryDofLabel: p.secondary.Label,
					PrimarySign:       float64(p.primary.Sign),
					SecondarySign:     float64(p.secondary.Sign),
				})
			}
		}
	}
	return tasks, nil
}

// GenerateCalibrations returns one calibration task per muscle model, in
// configuration order.
func GenerateCalibrations(cfg *config.SweepConfig) []CalibrationTask {
	out := make([]CalibrationTask, 0, len(cfg.MuscleModels))
	for _, m := range cfg.MuscleModels {
		out = append(out, CalibrationTask{MuscleModel: m})
	}
	return out
}
