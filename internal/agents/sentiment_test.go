package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/models"
)

func newGateway(t *testing.T, mock *ai.MockBackend) *ai.Gateway {
	t.Helper()
	gw, err := ai.New(mock)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	return gw
}

func messageFixture(n int) []models.Message {
	out := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Message{UserType: "customer", Content: fmt.Sprintf("message %d", i)})
	}
	return out
}

func TestAnalyzeEmptyInputSkipsInference(t *testing.T) {
	mock := &ai.MockBackend{Response: `{"messages": []}`}
	agent := NewSentimentAgent(newGateway(t, mock), 50, zerolog.Nop())

	outcome := agent.Analyze(context.Background(), nil)
	if mock.Calls() != 0 {
		t.Fatalf("expected no inference calls, got %d", mock.Calls())
	}
	if outcome.Summary.DominantSentiment != "neutral" || outcome.Summary.Trend != TrendStable {
		t.Fatalf("expected empty summary, got %+v", outcome.Summary)
	}
	if outcome.Summary.TotalAnalyzed != 0 {
		t.Fatalf("expected zero analyzed, got %d", outcome.Summary.TotalAnalyzed)
	}
}

func TestAnalyzePreservesIndicesAcrossBatches(t *testing.T) {
	calls := 0
	mock := &ai.MockBackend{Respond: func(prompt string, _ float64) (string, error) {
		calls++
		if calls == 1 {
			return `{"messages": [
				{"index": 0, "sentiment_score": 0.5, "sentiment_label": "positive", "sentiment_magnitude": 0.6},
				{"index": 1, "sentiment_score": -0.7, "sentiment_label": "negative", "sentiment_magnitude": 0.8}
			]}`, nil
		}
		return `{"messages": [
			{"index": 0, "sentiment_score": 0.1, "sentiment_label": "neutral", "sentiment_magnitude": 0.2}
		]}`, nil
	}}
	agent := NewSentimentAgent(newGateway(t, mock), 2, zerolog.Nop())

	outcome := agent.Analyze(context.Background(), messageFixture(3))
	if calls != 2 {
		t.Fatalf("expected 2 batches, got %d", calls)
	}
	if len(outcome.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(outcome.Results))
	}
	for i, r := range outcome.Results {
		if r.Index != i {
			t.Fatalf("expected result %d to keep global index, got %d", i, r.Index)
		}
	}
	if outcome.Results[2].Score != 0.1 {
		t.Fatalf("second batch result not remapped: %+v", outcome.Results[2])
	}
}

func TestAnalyzeFailedBatchYieldsPlaceholders(t *testing.T) {
	calls := 0
	mock := &ai.MockBackend{Respond: func(prompt string, _ float64) (string, error) {
		calls++
		if calls == 1 {
			return "", ai.UpstreamError{Status: "503"}
		}
		return `{"messages": [
			{"index": 0, "sentiment_score": 0.8, "sentiment_label": "positive", "sentiment_magnitude": 0.9}
		]}`, nil
	}}
	agent := NewSentimentAgent(newGateway(t, mock), 2, zerolog.Nop())

	outcome := agent.Analyze(context.Background(), messageFixture(3))
	if len(outcome.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(outcome.Results))
	}
	for i := 0; i < 2; i++ {
		r := outcome.Results[i]
		if r.Err == "" || r.Label != "neutral" || r.Score != 0 {
			t.Fatalf("expected placeholder at %d, got %+v", i, r)
		}
	}
	if outcome.Results[2].Err != "" {
		t.Fatalf("expected later batch to succeed, got %+v", outcome.Results[2])
	}
	// Placeholders are excluded from the average.
	if outcome.Summary.AverageScore != 0.8 {
		t.Fatalf("expected average 0.8 over surviving results, got %v", outcome.Summary.AverageScore)
	}
	if outcome.Summary.TotalAnalyzed != 3 {
		t.Fatalf("expected total 3, got %d", outcome.Summary.TotalAnalyzed)
	}
}

func TestSummarizeBandBoundaryIsNeutral(t *testing.T) {
	summary := summarize([]models.SentimentResult{{Index: 0, Score: 0.2}})
	if summary.DominantSentiment != "neutral" || summary.NeutralCount != 1 {
		t.Fatalf("score of exactly 0.2 must be neutral, got %+v", summary)
	}

	summary = summarize([]models.SentimentResult{{Index: 0, Score: 0.21}})
	if summary.DominantSentiment != "positive" || summary.PositiveCount != 1 {
		t.Fatalf("score of 0.21 must be positive, got %+v", summary)
	}

	summary = summarize([]models.SentimentResult{{Index: 0, Score: -0.2}})
	if summary.DominantSentiment != "neutral" {
		t.Fatalf("score of exactly -0.2 must be neutral, got %+v", summary)
	}
}

func TestSummarizeMixedTrio(t *testing.T) {
	summary := summarize([]models.SentimentResult{
		{Index: 0, Score: 0.8},
		{Index: 1, Score: -0.6},
		{Index: 2, Score: 0.4},
	})

	// The float sum of 0.8 - 0.6 + 0.4 lands a hair above 0.6, so the
	// unrounded average clears the strict 0.2 band.
	if summary.DominantSentiment != "positive" {
		t.Fatalf("expected positive dominant sentiment, got %s", summary.DominantSentiment)
	}
	if summary.AverageScore != 0.2 {
		t.Fatalf("expected reported average rounded to 0.2, got %v", summary.AverageScore)
	}
	if summary.PositiveCount != 2 || summary.NegativeCount != 1 || summary.NeutralCount != 0 {
		t.Fatalf("unexpected band counts: %+v", summary)
	}
	if summary.TotalAnalyzed != 3 {
		t.Fatalf("expected total 3, got %d", summary.TotalAnalyzed)
	}
}

func TestSummarizeTrend(t *testing.T) {
	improving := summarize([]models.SentimentResult{
		{Index: 0, Score: -0.5}, {Index: 1, Score: -0.4},
		{Index: 2, Score: 0.4}, {Index: 3, Score: 0.5},
	})
	if improving.Trend != TrendImproving {
		t.Fatalf("expected improving, got %s", improving.Trend)
	}

	declining := summarize([]models.SentimentResult{
		{Index: 0, Score: 0.5}, {Index: 1, Score: 0.4},
		{Index: 2, Score: -0.4}, {Index: 3, Score: -0.5},
	})
	if declining.Trend != TrendDeclining {
		t.Fatalf("expected declining, got %s", declining.Trend)
	}

	stable := summarize([]models.SentimentResult{
		{Index: 0, Score: 0.3}, {Index: 1, Score: 0.32},
	})
	if stable.Trend != TrendStable {
		t.Fatalf("expected stable, got %s", stable.Trend)
	}
}

func TestSummarizeAverageRounding(t *testing.T) {
	summary := summarize([]models.SentimentResult{
		{Index: 0, Score: 0.1}, {Index: 1, Score: 0.2}, {Index: 2, Score: 0.2},
	})
	if summary.AverageScore != 0.167 {
		t.Fatalf("expected average rounded to 0.167, got %v", summary.AverageScore)
	}
}

func TestTopThemesOrderedByFrequency(t *testing.T) {
	results := []models.SentimentResult{
		{Index: 0, KeyPhrases: []string{"billing", "slow response"}},
		{Index: 1, KeyPhrases: []string{"Billing", "outage"}},
		{Index: 2, KeyPhrases: []string{"billing", "outage", "ui", "docs", "pricing", "latency"}},
	}
	themes := topThemes(results, 5)
	if len(themes) != 5 {
		t.Fatalf("expected 5 themes, got %d", len(themes))
	}
	if themes[0] != "billing" || themes[1] != "outage" {
		t.Fatalf("expected frequency ordering, got %v", themes)
	}
}
