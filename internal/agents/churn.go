package agents

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/models"
)

// ChurnAgent estimates attrition probability from score history. On Gateway
// failure it falls back to a closed-form heuristic so the caller always
// receives a structurally valid prediction.
type ChurnAgent struct {
	gw     *ai.Gateway
	logger zerolog.Logger
}

func NewChurnAgent(gw *ai.Gateway, logger zerolog.Logger) *ChurnAgent {
	return &ChurnAgent{gw: gw, logger: logger}
}

// Predict expects history ordered most recent first.
func (a *ChurnAgent) Predict(ctx context.Context, customer models.CustomerContext, history []models.ScorePoint, currentScore int) models.ChurnPrediction {
	raw, err := a.gw.PredictChurn(ctx, customer, history, currentScore)
	if err != nil {
		a.logger.Error().Err(err).Msg("churn prediction failed")
		return heuristicPrediction(currentScore, history)
	}
	return validateChurn(raw)
}

// validateChurn clamps probability and confidence, and re-derives the risk
// level from the validated probability when the model's label is not
// canonical. Idempotent.
func validateChurn(raw ai.RawChurn) models.ChurnPrediction {
	probability := clampUnit(raw.ChurnProbability, 0.5)
	probability = round4(probability)

	risk := strings.ToLower(strings.TrimSpace(raw.RiskLevel))
	switch risk {
	case models.RiskLow, models.RiskMedium, models.RiskHigh, models.RiskCritical:
	default:
		risk = riskLevelFor(probability)
	}

	return models.ChurnPrediction{
		ChurnProbability:    probability,
		RiskLevel:           risk,
		ContributingFactors: orEmpty(raw.ContributingFactors),
		ProtectiveFactors:   orEmpty(raw.ProtectiveFactors),
		PredictedTimeframe:  orDefaultText(raw.PredictedTimeframe, "Unknown"),
		Confidence:          clampUnit(raw.Confidence, 0.7),
	}
}

// heuristicPrediction is the deterministic non-AI estimate: a base derived
// from the current score, nudged by the recent trend.
func heuristicPrediction(currentScore int, history []models.ScorePoint) models.ChurnPrediction {
	probability := float64(10-currentScore) / 10 * 0.6

	if len(history) >= 2 {
		recent := history
		if len(recent) > 5 {
			recent = recent[:5]
		}
		var sum float64
		for _, p := range recent {
			sum += float64(p.Score)
		}
		avgRecent := sum / float64(len(recent))
		if avgRecent < float64(currentScore) {
			probability += 0.1
		} else if avgRecent > float64(currentScore) {
			probability -= 0.1
		}
	}

	if probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	probability = round4(probability)

	return models.ChurnPrediction{
		ChurnProbability:    probability,
		RiskLevel:           riskLevelFor(probability),
		ContributingFactors: heuristicFactors(currentScore, history),
		ProtectiveFactors:   []string{},
		PredictedTimeframe:  "Unknown (heuristic prediction)",
		Confidence:          0.4,
	}
}

// riskLevelFor maps probability to the canonical levels under fixed
// thresholds.
func riskLevelFor(probability float64) string {
	switch {
	case probability < 0.20:
		return models.RiskLow
	case probability < 0.50:
		return models.RiskMedium
	case probability < 0.75:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}

func heuristicFactors(currentScore int, history []models.ScorePoint) []string {
	factors := []string{}

	if currentScore <= 3 {
		factors = append(factors, "Very low health score")
	} else if currentScore <= 5 {
		factors = append(factors, "Below average health score")
	}

	if len(history) >= 3 {
		// Most recent three, checked chronologically.
		recent := history[:3]
		declining := recent[2].Score >= recent[1].Score && recent[1].Score >= recent[0].Score
		if declining {
			factors = append(factors, "Declining score trend")
		}
	}

	return factors
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
