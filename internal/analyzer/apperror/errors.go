package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrCaptureFailed      = errors.New("chart capture failed")
	ErrVisionFailed       = errors.New("vision analysis failed")
	ErrFallbackFailed     = errors.New("fallback analysis failed")
	ErrPersistFailed      = errors.New("report persistence failed")
	ErrCancelled          = errors.New("job cancelled")
	ErrMissingPromptInput = errors.New("missing prompt input")
	ErrUnknownStrategy    = errors.New("unknown strategy")
)

// Stage names used in InfrastructureError.
const (
	StageCapture = "capture"
	StagePrompt  = "prompt"
	StageVision  = "vision"
	StagePersist = "persist"
	StageRender  = "render"
)

// SchemaError reports a model response that could not be decoded into a result.
type SchemaError struct {
	Reason string
	Raw    string
}

func (e *SchemaError) Error() string {
	return "SCHEMA ERROR: " + e.Reason
}

// InfrastructureError wraps a failure of an external collaborator.
type InfrastructureError struct {
	Stage     string
	Timeframe string
	Err       error
}

func (e *InfrastructureError) Error() string {
	if e.Timeframe != "" {
		return fmt.Sprintf("%s failed on %s: %v", e.Stage, e.Timeframe, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// NewInfrastructureError joins the stage sentinel with the cause so both match errors.Is.
func NewInfrastructureError(stage, timeframe string, sentinel, cause error) *InfrastructureError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &InfrastructureError{Stage: stage, Timeframe: timeframe, Err: err}
}
