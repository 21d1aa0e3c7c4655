package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/pulsecheck/backend/internal/models"
)

// Gateway renders prompt templates, issues exactly one inference call per
// invocation, and extracts a JSON payload from the raw response text.
// It keeps no state between invocations.
type Gateway struct {
	backend Backend
}

func New(backend Backend) (*Gateway, error) {
	if backend == nil {
		return nil, ConfigurationError{Detail: "no inference backend supplied"}
	}
	return &Gateway{backend: backend}, nil
}

// Raw payload shapes decoded from model output. Pointer fields distinguish
// absent values from zero values; validation and clamping happen in the
// agents, not here.

type RawSentiment struct {
	Index      *int     `json:"index"`
	Score      *float64 `json:"sentiment_score"`
	Label      string   `json:"sentiment_label"`
	Magnitude  *float64 `json:"sentiment_magnitude"`
	KeyPhrases []string `json:"key_phrases"`
}

type SentimentPayload struct {
	Messages []RawSentiment `json:"messages"`
}

type RawHealthScore struct {
	Score           *float64            `json:"score"`
	Components      map[string]*float64 `json:"components"`
	Reasoning       string              `json:"reasoning"`
	PositiveSignals []string            `json:"positive_signals"`
	WarningSignals  []string            `json:"warning_signals"`
	Confidence      *float64            `json:"confidence"`
}

type RawChurn struct {
	ChurnProbability    *float64 `json:"churn_probability"`
	RiskLevel           string   `json:"risk_level"`
	ContributingFactors []string `json:"contributing_factors"`
	ProtectiveFactors   []string `json:"protective_factors"`
	PredictedTimeframe  string   `json:"predicted_timeframe"`
	Confidence          *float64 `json:"confidence"`
}

type RawActionItem struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Priority          string   `json:"priority"`
	Category          string   `json:"category"`
	ImpactScore       *float64 `json:"impact_score"`
	EffortScore       *float64 `json:"effort_score"`
	SuggestedTimeline string   `json:"suggested_timeline"`
	SuccessMetrics    []string `json:"success_metrics"`
}

type ActionItemsPayload struct {
	ActionItems []RawActionItem `json:"action_items"`
}

// AnalyzeSentiment scores one batch of messages.
func (g *Gateway) AnalyzeSentiment(ctx context.Context, batch []models.Message) (SentimentPayload, error) {
	lines := make([]string, 0, len(batch))
	for _, m := range batch {
		lines = append(lines, fmt.Sprintf("[%s] %s", orUnknown(m.UserType), m.Content))
	}

	var payload SentimentPayload
	err := g.infer(ctx, sentimentPrompt, map[string]any{
		"messages": strings.Join(lines, "\n"),
	}, tempSentiment, &payload)
	return payload, err
}

// CalculateHealthScore bundles customer identity, aggregate sentiment, and a
// truncated window of the most recent messages into one scoring call.
func (g *Gateway) CalculateHealthScore(ctx context.Context, customer models.CustomerContext, messages []models.Message, summary models.SentimentSummary) (RawHealthScore, error) {
	var payload RawHealthScore
	err := g.infer(ctx, healthScorePrompt, map[string]any{
		"customer_name":   orUnknown(customer.Name),
		"company":         orUnknown(customer.CompanyName),
		"message_count":   len(messages),
		"avg_sentiment":   strconv.FormatFloat(summary.AverageScore, 'g', -1, 64),
		"sentiment_trend": orDefault(summary.Trend, "stable"),
		"recent_messages": formatRecentMessages(messages),
	}, tempScoring, &payload)
	return payload, err
}

// PredictChurn submits the current score and up to the 10 most recent
// history entries.
func (g *Gateway) PredictChurn(ctx context.Context, customer models.CustomerContext, history []models.ScorePoint, currentScore int) (RawChurn, error) {
	var payload RawChurn
	err := g.infer(ctx, churnPrompt, map[string]any{
		"customer_name": orUnknown(customer.Name),
		"current_score": currentScore,
		"score_history": formatScoreHistory(history),
		"tenure_days":   customer.TenureDays,
	}, tempChurn, &payload)
	return payload, err
}

// GenerateActionItems asks for ranked remediation actions given the weak
// score components and recent negative excerpts.
func (g *Gateway) GenerateActionItems(ctx context.Context, customer models.CustomerContext, healthScore int, components models.ScoreComponents, recentIssues []string) (ActionItemsPayload, error) {
	issues := "None identified"
	if len(recentIssues) > 0 {
		issues = strings.Join(recentIssues, "\n")
	}

	var payload ActionItemsPayload
	err := g.infer(ctx, actionItemsPrompt, map[string]any{
		"customer_name": orUnknown(customer.Name),
		"health_score":  healthScore,
		"weak_areas":    weakAreas(components),
		"recent_issues": issues,
	}, tempActions, &payload)
	return payload, err
}

// infer is the single-call contract: render, generate, extract, decode.
func (g *Gateway) infer(ctx context.Context, tmpl *template.Template, vars map[string]any, temperature float64, out any) error {
	prompt, err := renderPrompt(tmpl, vars)
	if err != nil {
		return ConfigurationError{Detail: err.Error()}
	}

	text, err := g.backend.Generate(ctx, prompt, temperature)
	if err != nil {
		return err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return ParsingError{Sample: truncateRunes(text, parseSampleLimit)}
	}
	return nil
}

const excerptLimit = 200

func formatRecentMessages(messages []models.Message) string {
	const window = 20
	if len(messages) > window {
		messages = messages[len(messages)-window:]
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("- [%s] %s", orUnknown(m.UserType), truncateRunes(m.Content, excerptLimit)))
	}
	return strings.Join(lines, "\n")
}

func formatScoreHistory(history []models.ScorePoint) string {
	if len(history) == 0 {
		return "No previous scores available"
	}
	if len(history) > 10 {
		history = history[:10]
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("- %s: Score %d/10", h.CreatedAt.Format("2006-01-02"), h.Score))
	}
	return strings.Join(lines, "\n")
}

// weakAreas names every component scoring below 6.
func weakAreas(c models.ScoreComponents) string {
	named := []struct {
		name  string
		value int
	}{
		{"Sentiment", c.Sentiment},
		{"Engagement", c.Engagement},
		{"Issue Resolution", c.IssueResolution},
		{"Tone Consistency", c.ToneConsistency},
		{"Response Pattern", c.ResponsePattern},
	}
	var weak []string
	for _, n := range named {
		if n.value < 6 {
			weak = append(weak, n.name)
		}
	}
	if len(weak) == 0 {
		return "None identified"
	}
	return strings.Join(weak, ", ")
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
