package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/joint-strength/internal/failures"
)

// defaults.yaml is the canonical sweep plan: twelve lower-limb strength
// studies, four muscle models and a 40-point secondary DOF sweep.
//
//go:embed defaults.yaml
var defaultsYAML []byte

// maxConfigSize bounds the size of a sweep configuration file.
const maxConfigSize = 1 * 1024 * 1024

// DofInfo is the axis label and sign convention of one degree of freedom.
// Sign multiplies simulator output to match the reference convention.
type DofInfo struct {
	Label string `json:"label" yaml:"label"`
	Sign  int    `json:"sign" yaml:"sign"`
}

// StudyPlan names the primary (swept) and secondary (sampled) DOF of a study.
type StudyPlan struct {
	Name         string `json:"name" yaml:"name"`
	Label        string `json:"label" yaml:"label"`
	PrimaryDof   string `json:"primary_dof" yaml:"primary_dof"`
	SecondaryDof string `json:"secondary_dof" yaml:"secondary_dof"`
}

// Linspace is an evenly spaced sweep including both end points.
type Linspace struct {
	Start float64 `json:"start" yaml:"start"`
	Stop  float64 `json:"stop" yaml:"stop"`
	Count int     `json:"count" yaml:"count"`
}

// SampleTable holds the sample points of a secondary DOF, either as fixed
// breakpoints or as a linear sweep. Values wins when both are set.
type SampleTable struct {
	Values   []float64 `json:"values,omitempty" yaml:"values,omitempty"`
	Linspace *Linspace `json:"linspace,omitempty" yaml:"linspace,omitempty"`
}

// Points returns the sample values in table order.
func (t SampleTable) Points() []float64 {
	if len(t.Values) > 0 {
		out := make([]float64, len(t.Values))
		copy(out, t.Values)
		return out
	}
	if t.Linspace == nil || t.Linspace.Count <= 0 {
		return nil
	}
	if t.Linspace.Count == 1 {
		return []float64{t.Linspace.Start}
	}
	return floats.Span(make([]float64, t.Linspace.Count), t.Linspace.Start, t.Linspace.Stop)
}

// SimulationConfig configures the external simulator invocation.
type SimulationConfig struct {
	Executable string `json:"executable" yaml:"executable"`
	// Args are passed to Executable; "{macro}" is replaced by the macro path.
	Args                 []string `json:"args" yaml:"args"`
	MainFile             string   `json:"main_file" yaml:"main_file"`
	ModelPath            string   `json:"model_path" yaml:"model_path"`
	CalibrationOperation string   `json:"calibration_operation" yaml:"calibration_operation"`
	NumProcesses         int      `json:"num_processes" yaml:"num_processes"`
	WorkDir              string   `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// OutputConfig controls dataset file naming.
type OutputConfig struct {
	Dir         string `json:"dir" yaml:"dir"`
	DatasetName string `json:"dataset_name" yaml:"dataset_name"`
	MergedName  string `json:"merged_name" yaml:"merged_name"`
	Extension   string `json:"extension" yaml:"extension"`
}

// SweepConfig is the process-wide sweep configuration. It is built once at
// start-up and treated as read-only afterwards.
type SweepConfig struct {
	Studies          []StudyPlan            `json:"studies" yaml:"studies"`
	Dofs             map[string]DofInfo     `json:"dofs" yaml:"dofs"`
	RangeOfMotion    map[string][2]float64  `json:"range_of_motion" yaml:"range_of_motion"`
	SecondarySamples map[string]SampleTable `json:"secondary_samples" yaml:"secondary_samples"`
	MuscleModels     []string               `json:"muscle_models" yaml:"muscle_models"`
	Simulation       SimulationConfig       `json:"simulation" yaml:"simulation"`
	Output           OutputConfig           `json:"output" yaml:"output"`
}

// Default returns the embedded default sweep configuration.
func Default() *SweepConfig {
	cfg := &SweepConfig{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic("config: embedded defaults.yaml is invalid: " + err.Error())
	}
	return cfg
}

// Load reads a sweep configuration from a .yaml, .yml or .json file.
// Sections omitted from the file keep their default values. The result is
// validated before it is returned.
func Load(path string) (*SweepConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".yaml" && ext != ".yml" && ext != ".json" {
		return nil, failures.Configf(failures.CodeInvalidConfigFile,
			"config file must have .yaml, .yml or .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, &failures.ConfigurationError{Code: failures.CodeInvalidConfigFile, Message: "failed to stat config file", Cause: err}
	}
	if info.Size() > maxConfigSize {
		return nil, failures.Configf(failures.CodeInvalidConfigFile,
			"config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, &failures.ConfigurationError{Code: failures.CodeInvalidConfigFile, Message: "failed to read config file", Cause: err}
	}

	return Parse(data, ext)
}

// Parse decodes configuration bytes on top of the defaults. ext selects the
// decoder (".json" or YAML otherwise).
func Parse(data []byte, ext string) (*SweepConfig, error) {
	cfg := Default()
	var err error
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &failures.ConfigurationError{Code: failures.CodeInvalidConfigFile, Message: "failed to parse config", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dof returns the label and sign of a DOF.
func (c *SweepConfig) Dof(name string) (DofInfo, bool) {
	info, ok := c.Dofs[name]
	return info, ok
}

// RangeFor returns the primary range of motion of a study. Studies with an
// explicit entry win over their primary DOF's entry.
func (c *SweepConfig) RangeFor(study StudyPlan) ([2]float64, bool) {
	if rom, ok := c.RangeOfMotion[study.Name]; ok {
		return rom, true
	}
	rom, ok := c.RangeOfMotion[study.PrimaryDof]
	return rom, ok
}

// Samples returns the secondary DOF sample points of a DOF.
func (c *SweepConfig) Samples(dof string) ([]float64, bool) {
	table, ok := c.SecondarySamples[dof]
	if !ok {
		return nil, false
	}
	return table.Points(), true
}

// Validate checks every lookup the task generator will perform, so a broken
// plan fails before any task exists.
func (c *SweepConfig) Validate() error {
	if len(c.Studies) == 0 {
		return failures.Configf(failures.CodeEmptyPlan, "sweep plan has no studies")
	}
	if len(c.MuscleModels) == 0 {
		return failures.Configf(failures.CodeNoMuscleModels, "sweep plan has no muscle models")
	}

	for name, info := range c.Dofs {
		if info.Sign != 1 && info.Sign != -1 {
			return failures.Configf(failures.CodeInvalidSign, "dof %q has sign %d, must be 1 or -1", name, info.Sign)
		}
	}

	seen := make(map[string]bool, len(c.Studies))
	for _, study := range c.Studies {
		if study.Name == "" {
			return failures.Configf(failures.CodeEmptyPlan, "study without a name")
		}
		if seen[study.Name] {
			return failures.Configf(failures.CodeDuplicateStudy, "study %q declared twice", study.Name)
		}
		seen[study.Name] = true

		if _, ok := c.Dofs[study.PrimaryDof]; !ok {
			return failures.Configf(failures.CodeUnknownDof, "study %q: primary dof %q not in dof table", study.Name, study.PrimaryDof)
		}
		if _, ok := c.Dofs[study.SecondaryDof]; !ok {
			return failures.Configf(failures.CodeUnknownDof, "study %q: secondary dof %q not in dof table", study.Name, study.SecondaryDof)
		}
		if _, ok := c.RangeFor(study); !ok {
			return failures.Configf(failures.CodeMissingRange, "study %q: no range of motion for study or dof %q", study.Name, study.PrimaryDof)
		}
		table, ok := c.SecondarySamples[study.SecondaryDof]
		if !ok {
			return failures.Configf(failures.CodeMissingSamples, "study %q: no sample table for secondary dof %q", study.Name, study.SecondaryDof)
		}
		if len(table.Values) == 0 && (table.Linspace == nil || table.Linspace.Count < 1) {
			return failures.Configf(failures.CodeInvalidSamples, "sample table for %q is empty", study.SecondaryDof)
		}
	}

	if c.Simulation.NumProcesses < 0 {
		return failures.Configf(failures.CodeInvalidConfigFile, "simulation.num_processes must be non-negative, got %d", c.Simulation.NumProcesses)
	}
	return nil
}

// WithSamples returns a copy of c whose secondary sample tables are replaced
// by overrides. c is left untouched.
func (c *SweepConfig) WithSamples(overrides map[string]SampleTable) *SweepConfig {
	out := *c
	out.SecondarySamples = make(map[string]SampleTable, len(c.SecondarySamples)+len(overrides))
	for name, table := range c.SecondarySamples {
		out.SecondarySamples[name] = table
	}
	for name, table := range overrides {
		out.SecondarySamples[name] = table
	}
	return &out
}
