package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when an LLM-backed mode is configured
	// without credentials for the selected provider.
	ErrMissingAPIKey = errors.New("grading mode requires a provider API key")

	// ErrUnknownMode is returned for a grading mode outside {mock, ai, gemini}.
	ErrUnknownMode = errors.New("unknown grading mode")
)

// SpecError reports a malformed ScoreSpec. It is a configuration problem
// with the stored question, not a runtime fault: grading for that answer
// aborts and the caller surfaces it instead of silently scoring zero.
type SpecError struct {
	Type   QuestionType
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid %s score spec: %s: %s", e.Type, e.Field, e.Reason)
}

// IsSpecError reports whether err is (or wraps) a SpecError.
func IsSpecError(err error) bool {
	var se *SpecError
	return errors.As(err, &se)
}

// ProviderError reports a failed call to an external grading provider.
// Transient failures (timeouts, network errors, unparseable responses)
// are retried and then replaced by the deterministic fallback; they never
// surface past the orchestrator.
type ProviderError struct {
	Provider  Provider
	Op        string
	Err       error
	Transient bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransientProviderError reports whether err is a provider failure the
// selector should recover from by falling back.
func IsTransientProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}
