package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecheck/backend/internal/models"
)

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(nil)
	var cerr ConfigurationError
	require.True(t, errors.As(err, &cerr))
}

func TestOperationTemperatures(t *testing.T) {
	mock := &MockBackend{Response: `{"messages": [], "action_items": []}`}
	gw, err := New(mock)
	require.NoError(t, err)

	ctx := context.Background()
	_, _ = gw.AnalyzeSentiment(ctx, []models.Message{{Content: "hi"}})
	_, _ = gw.CalculateHealthScore(ctx, models.CustomerContext{}, nil, models.SentimentSummary{})
	_, _ = gw.PredictChurn(ctx, models.CustomerContext{}, nil, 5)
	_, _ = gw.GenerateActionItems(ctx, models.CustomerContext{}, 5, models.ScoreComponents{}, nil)

	assert.Equal(t, []float64{0.1, 0.2, 0.2, 0.4}, mock.Temperatures())
}

func TestAnalyzeSentimentPromptLines(t *testing.T) {
	mock := &MockBackend{Response: `{"messages": []}`}
	gw, _ := New(mock)

	_, err := gw.AnalyzeSentiment(context.Background(), []models.Message{
		{UserType: models.UserTypeCustomer, Content: "The export keeps failing"},
		{UserType: "", Content: "Checking on this now"},
	})
	require.NoError(t, err)

	prompts := mock.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "[customer] The export keeps failing")
	assert.Contains(t, prompts[0], "[Unknown] Checking on this now")
}

func TestCalculateHealthScorePromptContext(t *testing.T) {
	mock := &MockBackend{Response: `{"score": 7}`}
	gw, _ := New(mock)

	messages := []models.Message{{UserType: models.UserTypeCustomer, Content: "All good here"}}
	summary := models.SentimentSummary{AverageScore: 0.42, Trend: "improving"}
	_, err := gw.CalculateHealthScore(context.Background(), models.CustomerContext{Name: "Dana", CompanyName: "Acme"}, messages, summary)
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, "Customer: Dana")
	assert.Contains(t, prompt, "Company: Acme")
	assert.Contains(t, prompt, "Average Sentiment: 0.42")
	assert.Contains(t, prompt, "Sentiment Trend: improving")
	assert.Contains(t, prompt, "- [customer] All good here")
}

func TestCalculateHealthScoreWindowsRecentMessages(t *testing.T) {
	mock := &MockBackend{Response: `{"score": 7}`}
	gw, _ := New(mock)

	var messages []models.Message
	for i := 0; i < 25; i++ {
		messages = append(messages, models.Message{UserType: "customer", Content: "msg"})
	}
	messages[4].Content = "dropped from window"
	messages[5].Content = "oldest visible"

	_, err := gw.CalculateHealthScore(context.Background(), models.CustomerContext{}, messages, models.SentimentSummary{})
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	assert.NotContains(t, prompt, "dropped from window")
	assert.Contains(t, prompt, "oldest visible")
	assert.Contains(t, prompt, "Messages Analyzed: 25")
}

func TestPredictChurnEmptyHistoryPlaceholder(t *testing.T) {
	mock := &MockBackend{Response: `{"churn_probability": 0.2}`}
	gw, _ := New(mock)

	_, err := gw.PredictChurn(context.Background(), models.CustomerContext{Name: "Dana", TenureDays: 90}, nil, 6)
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, "No previous scores available")
	assert.Contains(t, prompt, "Current Health Score: 6/10")
	assert.Contains(t, prompt, "Account Tenure: 90 days")
}

func TestPredictChurnFormatsHistory(t *testing.T) {
	mock := &MockBackend{Response: `{"churn_probability": 0.2}`}
	gw, _ := New(mock)

	history := []models.ScorePoint{
		{Score: 4, CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)},
		{Score: 6, CreatedAt: time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)},
	}
	_, err := gw.PredictChurn(context.Background(), models.CustomerContext{}, history, 4)
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, "- 2026-08-20: Score 4/10")
	assert.Contains(t, prompt, "- 2026-07-20: Score 6/10")
}

func TestGenerateActionItemsWeakAreas(t *testing.T) {
	mock := &MockBackend{Response: `{"action_items": []}`}
	gw, _ := New(mock)

	components := models.ScoreComponents{
		Sentiment:       3,
		Engagement:      8,
		IssueResolution: 5,
		ToneConsistency: 7,
		ResponsePattern: 6,
	}
	_, err := gw.GenerateActionItems(context.Background(), models.CustomerContext{}, 5, components, nil)
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	assert.Contains(t, prompt, "Weak Areas: Sentiment, Issue Resolution")
	assert.Contains(t, prompt, "None identified")
}

func TestInferSurfacesParsingError(t *testing.T) {
	mock := &MockBackend{Response: "no json here"}
	gw, _ := New(mock)

	_, err := gw.AnalyzeSentiment(context.Background(), []models.Message{{Content: "x"}})
	var perr ParsingError
	require.True(t, errors.As(err, &perr))
}

func TestInferSurfacesBackendError(t *testing.T) {
	mock := &MockBackend{Err: UpstreamError{Status: "503 Service Unavailable"}}
	gw, _ := New(mock)

	_, err := gw.AnalyzeSentiment(context.Background(), []models.Message{{Content: "x"}})
	var uerr UpstreamError
	require.True(t, errors.As(err, &uerr))
}

func TestNewGeminiBackendRequiresKey(t *testing.T) {
	_, err := NewGeminiBackend("", "gemini-2.0-flash", "")
	var cerr ConfigurationError
	require.True(t, errors.As(err, &cerr))
}
