package failures

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	err := Configf(CodeUnknownDof, "study %q: primary dof %q not in dof table", "HipFlexion", "ElbowFlexion")
	assert.Equal(t, `configuration error (unknown_dof): study "HipFlexion": primary dof "ElbowFlexion" not in dof table`, err.Error())
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrSimulationFailure))

	wrapped := fmt.Errorf("load: %w", &ConfigurationError{Code: CodeInvalidConfigFile, Message: "failed to read config file", Cause: fs.ErrNotExist})
	assert.True(t, errors.Is(wrapped, ErrConfiguration))
	assert.True(t, errors.Is(wrapped, fs.ErrNotExist))

	var cfgErr *ConfigurationError
	assert.True(t, errors.As(wrapped, &cfgErr))
	assert.Equal(t, CodeInvalidConfigFile, cfgErr.Code)

	assert.Equal(t, "configuration error: no code", (&ConfigurationError{Message: "no code"}).Error())
}

func TestSimulationFailure(t *testing.T) {
	err := &SimulationFailure{TaskIndex: 1, Task: "study=KneeFlexion muscle=Simple HipFlexion=45", Payload: "ERROR(OBJ1): boom"}
	assert.Equal(t, "simulation failure task=1 (study=KneeFlexion muscle=Simple HipFlexion=45): ERROR(OBJ1): boom", err.Error())
	assert.True(t, errors.Is(fmt.Errorf("batch 2: %w", err), ErrSimulationFailure))
	assert.False(t, errors.Is(err, ErrConfiguration))
}

func TestSchemaMismatch(t *testing.T) {
	err := &SchemaMismatch{File: "joint_strength_results_2.parquet", Field: "measureValue", Want: "float64", Got: "utf8"}
	assert.Equal(t, `schema mismatch in joint_strength_results_2.parquet: field "measureValue" want float64, got utf8`, err.Error())
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestNilErrors(t *testing.T) {
	var c *ConfigurationError
	var s *SimulationFailure
	var m *SchemaMismatch
	assert.Equal(t, "", c.Error())
	assert.Equal(t, "", s.Error())
	assert.Equal(t, "", m.Error())
}
