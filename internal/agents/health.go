package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/models"
)

// HealthScoreAgent turns message context plus the sentiment aggregate into
// a clamped 1-10 health score. It never fails: any Gateway error collapses
// into a deterministic default result.
type HealthScoreAgent struct {
	gw     *ai.Gateway
	logger zerolog.Logger
}

func NewHealthScoreAgent(gw *ai.Gateway, logger zerolog.Logger) *HealthScoreAgent {
	return &HealthScoreAgent{gw: gw, logger: logger}
}

func (a *HealthScoreAgent) Calculate(ctx context.Context, customer models.CustomerContext, messages []models.Message, summary models.SentimentSummary) models.HealthScoreResult {
	raw, err := a.gw.CalculateHealthScore(ctx, customer, messages, summary)
	if err != nil {
		a.logger.Error().Err(err).Msg("health score calculation failed")
		return defaultHealthScore(err)
	}
	return validateHealthScore(raw)
}

// validateHealthScore maps raw decoded JSON to a typed, clamped result.
// All defensive defaulting lives here; applying it twice is a no-op.
func validateHealthScore(raw ai.RawHealthScore) models.HealthScoreResult {
	return models.HealthScoreResult{
		Score: clampScore(raw.Score, 5),
		Components: models.ScoreComponents{
			Sentiment:       clampScore(raw.Components["sentiment_score"], 5),
			Engagement:      clampScore(raw.Components["engagement_score"], 5),
			IssueResolution: clampScore(raw.Components["issue_resolution_score"], 5),
			ToneConsistency: clampScore(raw.Components["tone_consistency_score"], 5),
			ResponsePattern: clampScore(raw.Components["response_pattern_score"], 5),
		},
		Reasoning:       orDefaultText(raw.Reasoning, "Score calculated based on available data."),
		PositiveSignals: orEmpty(raw.PositiveSignals),
		WarningSignals:  orEmpty(raw.WarningSignals),
		Confidence:      clampUnit(raw.Confidence, 0.7),
	}
}

func defaultHealthScore(cause error) models.HealthScoreResult {
	return models.HealthScoreResult{
		Score: 5,
		Components: models.ScoreComponents{
			Sentiment:       5,
			Engagement:      5,
			IssueResolution: 5,
			ToneConsistency: 5,
			ResponsePattern: 5,
		},
		Reasoning:       fmt.Sprintf("Unable to calculate accurate score: %v", cause),
		PositiveSignals: []string{},
		WarningSignals:  []string{"Calculation error - manual review recommended"},
		Confidence:      0.3,
	}
}

// clampScore truncates fractional input toward zero, then clamps to [1,10].
func clampScore(v *float64, def int) int {
	n := def
	if v != nil {
		n = int(*v)
	}
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

func clampUnit(v *float64, def float64) float64 {
	f := def
	if v != nil {
		f = *v
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func orDefaultText(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
