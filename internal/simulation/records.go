package simulation

import (
	"fmt"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/dataset"
	"github.com/banshee-data/joint-strength/internal/sweep"
)

// taskRecords turns the dumped outputs of one task into result records, one
// per joint angle sample.
func taskRecords(cfg config.SimulationConfig, t sweep.Task, out ConsoleOutput) ([]dataset.Record, error) {
	study := studyPath(cfg, t)
	angles, ok := out.Numbers(study + "." + jointAngleVar)
	if !ok {
		return nil, fmt.Errorf("no numeric output for %s.%s", study, jointAngleVar)
	}
	strength, ok := out.Numbers(study + "." + jointStrengthVar)
	if !ok {
		return nil, fmt.Errorf("no numeric output for %s.%s", study, jointStrengthVar)
	}
	if len(angles) == 0 {
		return nil, fmt.Errorf("empty output for %s.%s", study, jointAngleVar)
	}
	if len(angles) != len(strength) {
		return nil, fmt.Errorf("joint angle has %d samples but joint strength has %d", len(angles), len(strength))
	}

	branch := out.Text(ammrBranchVar)
	hash := out.Text(ammrHashVar)
	version := out.Text(anybodyVersionVar)

	records := make([]dataset.Record, len(angles))
	for i := range angles {
		records[i] = dataset.Record{
			Row: dataset.Row{
				MeasurePrimaryDoF: angles[i],
				MeasureValue:      strength[i],
				MeasureSecondDoF:  t.SecondaryDofValue,
				MeasureObject:     t.MeasureObject,
				PrimaryDoF:        t.PrimaryDofLabel,
				SecondaryDoF:      t.SecondaryDofLabel,
				AnyBodyMuscleType: t.MuscleModel,
				AMMRGitBranch:     branch,
				AMMRGitHash:       hash,
				AnyBodyVersion:    version,
			},
			MeasurePrimaryDoFSign: t.PrimarySign,
			MeasureSecondDoFSign:  t.SecondarySign,
		}
	}
	return records, nil
}
