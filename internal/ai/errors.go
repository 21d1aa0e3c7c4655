package ai

import "fmt"

// ConfigurationError means no usable credential or backend was supplied.
// It is fatal: no inference call can be made, so there is no fallback.
type ConfigurationError struct {
	Detail string
}

func (e ConfigurationError) Error() string {
	if e.Detail != "" {
		return "ai: " + e.Detail
	}
	return "ai: missing configuration"
}

// ParsingError means the backend responded but no JSON object could be
// extracted from the text. Sample holds at most 500 characters of the
// offending response for diagnostics.
type ParsingError struct {
	Sample string
}

func (e ParsingError) Error() string {
	return fmt.Sprintf("ai: could not parse JSON from response: %q", e.Sample)
}

// UpstreamError wraps a transport or backend failure.
type UpstreamError struct {
	Status string
	Err    error
}

func (e UpstreamError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("ai: backend error: %s", e.Status)
	}
	return fmt.Sprintf("ai: backend request failed: %v", e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }
