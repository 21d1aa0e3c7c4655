package agents

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/models"
)

const (
	// DefaultBatchSize bounds prompt size per sentiment call.
	DefaultBatchSize = 50

	// trendDelta is the half-sequence mean difference required before the
	// trend is called anything other than "stable". Tunable.
	trendDelta = 0.1

	// sentimentBand separates positive/negative from neutral. The
	// comparison is strict: exactly ±0.2 counts as neutral.
	sentimentBand = 0.2
)

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// SentimentAgent splits message batches, submits each batch to the Gateway,
// and merges per-message results back into the original index space.
type SentimentAgent struct {
	gw        *ai.Gateway
	batchSize int
	logger    zerolog.Logger
}

func NewSentimentAgent(gw *ai.Gateway, batchSize int, logger zerolog.Logger) *SentimentAgent {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &SentimentAgent{gw: gw, batchSize: batchSize, logger: logger}
}

// SentimentOutcome pairs the per-message results with their deterministic
// aggregate.
type SentimentOutcome struct {
	Results []models.SentimentResult `json:"messages"`
	Summary models.SentimentSummary  `json:"summary"`
}

// Analyze scores every message. A failed batch is replaced with placeholder
// results carrying an error annotation; later batches still execute. Empty
// input returns the canonical empty summary without a Gateway call.
func (a *SentimentAgent) Analyze(ctx context.Context, messages []models.Message) SentimentOutcome {
	if len(messages) == 0 {
		return SentimentOutcome{Summary: emptySummary()}
	}

	var results []models.SentimentResult
	for offset := 0; offset < len(messages); offset += a.batchSize {
		end := offset + a.batchSize
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[offset:end]

		payload, err := a.gw.AnalyzeSentiment(ctx, batch)
		if err != nil {
			a.logger.Error().Err(err).Int("batch_offset", offset).Msg("sentiment batch failed")
			results = append(results, placeholderResults(offset, len(batch), err)...)
			continue
		}

		for pos, raw := range payload.Messages {
			local := pos
			if raw.Index != nil {
				local = *raw.Index
			}
			results = append(results, models.SentimentResult{
				Index:      local + offset,
				Score:      deref(raw.Score, 0),
				Label:      orLabel(raw.Label),
				Magnitude:  deref(raw.Magnitude, 0),
				KeyPhrases: raw.KeyPhrases,
			})
		}
	}

	return SentimentOutcome{
		Results: results,
		Summary: summarize(results),
	}
}

func placeholderResults(offset, n int, err error) []models.SentimentResult {
	out := make([]models.SentimentResult, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, models.SentimentResult{
			Index:      offset + j,
			Score:      0,
			Label:      "neutral",
			Magnitude:  0,
			KeyPhrases: []string{},
			Err:        err.Error(),
		})
	}
	return out
}

// summarize is a pure reduction over the result sequence. Placeholder
// entries are excluded from score statistics but their presence keeps the
// original ordering intact.
func summarize(results []models.SentimentResult) models.SentimentSummary {
	if len(results) == 0 {
		return emptySummary()
	}

	var scores []float64
	for _, r := range results {
		if r.Err == "" {
			scores = append(scores, r.Score)
		}
	}
	if len(scores) == 0 {
		return emptySummary()
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))

	trend := TrendStable
	if mid := len(scores) / 2; mid > 0 {
		firstAvg := mean(scores[:mid])
		secondAvg := mean(scores[mid:])
		switch {
		case secondAvg > firstAvg+trendDelta:
			trend = TrendImproving
		case secondAvg < firstAvg-trendDelta:
			trend = TrendDeclining
		}
	}

	dominant := "neutral"
	if avg > sentimentBand {
		dominant = "positive"
	} else if avg < -sentimentBand {
		dominant = "negative"
	}

	var positive, negative, neutral int
	for _, s := range scores {
		switch {
		case s > sentimentBand:
			positive++
		case s < -sentimentBand:
			negative++
		default:
			neutral++
		}
	}

	return models.SentimentSummary{
		AverageScore:      math.Round(avg*1000) / 1000,
		Trend:             trend,
		DominantSentiment: dominant,
		KeyThemes:         topThemes(results, 5),
		TotalAnalyzed:     len(results),
		PositiveCount:     positive,
		NegativeCount:     negative,
		NeutralCount:      neutral,
	}
}

// topThemes counts key phrases case-insensitively and returns the n most
// frequent, ties broken by first-seen order.
func topThemes(results []models.SentimentResult, n int) []string {
	counts := map[string]int{}
	var order []string
	for _, r := range results {
		for _, phrase := range r.KeyPhrases {
			key := strings.ToLower(phrase)
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		order = []string{}
	}
	return order
}

func emptySummary() models.SentimentSummary {
	return models.SentimentSummary{
		Trend:             TrendStable,
		DominantSentiment: "neutral",
		KeyThemes:         []string{},
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orLabel(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return "positive"
	case "negative":
		return "negative"
	default:
		return "neutral"
	}
}
