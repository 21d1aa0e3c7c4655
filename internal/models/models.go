package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	UserTypeCustomer = "customer"
	UserTypeInternal = "internal"
	UserTypeBot      = "bot"
)

const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
	StatusError            = "error"
)

type Customer struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Message struct {
	ID                 uuid.UUID `json:"id"`
	CustomerID         uuid.UUID `json:"customer_id"`
	UserType           string    `json:"user_type"`
	Content            string    `json:"content"`
	SentimentScore     *float64  `json:"sentiment_score,omitempty"`
	SentimentLabel     *string   `json:"sentiment_label,omitempty"`
	SentimentMagnitude *float64  `json:"sentiment_magnitude,omitempty"`
	IsAnalyzed         bool      `json:"is_analyzed"`
	MessageTimestamp   time.Time `json:"message_timestamp"`
	CreatedAt          time.Time `json:"created_at"`
}

// SentimentResult carries the per-message outcome of sentiment analysis.
// Index is the message's position in the original pre-batching sequence.
// Err is set on placeholder results produced for a failed batch; such
// entries are excluded from summary averages.
type SentimentResult struct {
	Index      int      `json:"index"`
	Score      float64  `json:"sentiment_score"`
	Label      string   `json:"sentiment_label"`
	Magnitude  float64  `json:"sentiment_magnitude"`
	KeyPhrases []string `json:"key_phrases"`
	Err        string   `json:"error,omitempty"`
}

type SentimentSummary struct {
	AverageScore      float64  `json:"average_score"`
	Trend             string   `json:"trend"`
	DominantSentiment string   `json:"dominant_sentiment"`
	KeyThemes         []string `json:"key_themes"`
	TotalAnalyzed     int      `json:"total_analyzed"`
	PositiveCount     int      `json:"positive_count"`
	NegativeCount     int      `json:"negative_count"`
	NeutralCount      int      `json:"neutral_count"`
}

// ScoreComponents are the five weighted sub-scores, each in [1,10].
type ScoreComponents struct {
	Sentiment       int `json:"sentiment_score"`
	Engagement      int `json:"engagement_score"`
	IssueResolution int `json:"issue_resolution_score"`
	ToneConsistency int `json:"tone_consistency_score"`
	ResponsePattern int `json:"response_pattern_score"`
}

type HealthScoreResult struct {
	Score           int             `json:"score"`
	Components      ScoreComponents `json:"components"`
	Reasoning       string          `json:"reasoning"`
	PositiveSignals []string        `json:"positive_signals"`
	WarningSignals  []string        `json:"warning_signals"`
	Confidence      float64         `json:"confidence"`
}

const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

type ChurnPrediction struct {
	ChurnProbability    float64  `json:"churn_probability"`
	RiskLevel           string   `json:"risk_level"`
	ContributingFactors []string `json:"contributing_factors"`
	ProtectiveFactors   []string `json:"protective_factors"`
	PredictedTimeframe  string   `json:"predicted_timeframe"`
	Confidence          float64  `json:"confidence"`
}

type ActionItem struct {
	ID                uuid.UUID  `json:"id,omitempty"`
	CustomerID        uuid.UUID  `json:"customer_id,omitempty"`
	HealthScoreID     *uuid.UUID `json:"health_score_id,omitempty"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Priority          string     `json:"priority"`
	Category          string     `json:"category"`
	Status            string     `json:"status,omitempty"`
	ImpactScore       int        `json:"impact_score"`
	EffortScore       int        `json:"effort_score"`
	SuggestedTimeline string     `json:"suggested_timeline"`
	SuccessMetrics    []string   `json:"success_metrics"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
}

// CustomerContext is the identity slice of a customer handed to the
// inference prompts.
type CustomerContext struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	TenureDays  int    `json:"tenure_days"`
}

// ScorePoint is one entry of a customer's health score history,
// most recent first.
type ScorePoint struct {
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

type AnalysisPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AnalysisResult is the aggregate output of one orchestrated run.
type AnalysisResult struct {
	Status           string             `json:"status"`
	CustomerID       uuid.UUID          `json:"customer_id"`
	HealthScore      *HealthScoreResult `json:"health_score,omitempty"`
	ChurnPrediction  *ChurnPrediction   `json:"churn_prediction,omitempty"`
	ActionItems      []ActionItem       `json:"action_items,omitempty"`
	MessagesAnalyzed int                `json:"messages_analyzed"`
	Period           *AnalysisPeriod    `json:"analysis_period,omitempty"`
	Message          string             `json:"message,omitempty"`
	Error            string             `json:"error,omitempty"`
}

// HealthScoreRecord is the persisted form of a health score.
type HealthScoreRecord struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Score            int             `json:"score"`
	ChurnProbability float64         `json:"churn_probability"`
	Components       ScoreComponents `json:"score_components"`
	MessagesAnalyzed int             `json:"messages_analyzed"`
	Reasoning        string          `json:"reasoning"`
	PeriodStart      time.Time       `json:"calculation_period_start"`
	PeriodEnd        time.Time       `json:"calculation_period_end"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Run records one batch analysis pass over all active customers.
type Run struct {
	ID         uuid.UUID       `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Status     string          `json:"status"`
	Summary    json.RawMessage `json:"summary,omitempty"`
}
