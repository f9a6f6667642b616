// Package failures defines the typed errors shared by the sweep pipeline.
package failures

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrSimulationFailure = errors.New("simulation failure")
	ErrSchemaMismatch    = errors.New("schema mismatch")
)

// Configuration error codes.
const (
	CodeUnknownDof        = "unknown_dof"
	CodeMissingRange      = "missing_range_of_motion"
	CodeMissingSamples    = "missing_secondary_samples"
	CodeInvalidSign       = "invalid_sign"
	CodeInvalidSamples    = "invalid_samples"
	CodeNoMuscleModels    = "no_muscle_models"
	CodeDuplicateStudy    = "duplicate_study"
	CodeEmptyPlan         = "empty_plan"
	CodeTooManyBatches    = "too_many_batches"
	CodeBatchOutOfRange   = "batch_out_of_range"
	CodeIncompleteBatch   = "incomplete_batch_selection"
	CodeEmptyMatch        = "empty_match"
	CodeInvalidConfigFile = "invalid_config_file"
	CodeUnsafePath        = "unsafe_path"
)

// ConfigurationError is raised before any simulation work starts: a malformed
// sweep plan, a missing lookup entry or an impossible batch selection.
type ConfigurationError struct {
	Code    string
	Message string
	Cause   error
}

// Configf builds a ConfigurationError with a formatted message.
func Configf(code, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Code != "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Code, msg)
	}
	return fmt.Sprintf("configuration error: %s", msg)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// SimulationFailure reports the first failing task of a batch. Payload is the
// external engine's error output, unmodified.
type SimulationFailure struct {
	TaskIndex int
	Task      string
	Payload   string
}

func (e *SimulationFailure) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("simulation failure task=%d (%s): %s", e.TaskIndex, e.Task, e.Payload)
}

func (e *SimulationFailure) Is(target error) bool { return target == ErrSimulationFailure }

// SchemaMismatch is raised when batch files being merged disagree on their
// column set or column types.
type SchemaMismatch struct {
	File  string
	Field string
	Want  string
	Got   string
}

func (e *SchemaMismatch) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("schema mismatch in %s: field %q want %s, got %s", e.File, e.Field, e.Want, e.Got)
}

func (e *SchemaMismatch) Is(target error) bool { return target == ErrSchemaMismatch }
