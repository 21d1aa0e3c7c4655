package ai

import "context"

// Backend issues a single raw inference call: rendered prompt in, response
// text out. Implementations must be safe for concurrent use and must not
// retry internally; retry and fallback policy belongs to the caller.
type Backend interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
}

// Temperatures per operation: lower for structurally strict tasks.
const (
	tempSentiment = 0.1
	tempScoring   = 0.2
	tempChurn     = 0.2
	tempActions   = 0.4
)
