package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/agents"
	"github.com/pulsecheck/backend/internal/ai"
	"github.com/pulsecheck/backend/internal/cache"
	"github.com/pulsecheck/backend/internal/models"
)

// Store is the persistence collaborator consumed by the pipeline.
// *db.Store satisfies it; tests substitute a mock.
type Store interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (models.Customer, error)
	ListActiveCustomers(ctx context.Context) ([]models.Customer, error)
	GetMessagesSince(ctx context.Context, customerID uuid.UUID, since time.Time) ([]models.Message, error)
	BulkUpdateSentiment(ctx context.Context, messages []models.Message, results []models.SentimentResult) error
	GetScoreHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]models.ScorePoint, error)
	SaveAnalysis(ctx context.Context, record models.HealthScoreRecord, items []models.ActionItem) (uuid.UUID, error)
}

var ErrCustomerNotFound = errors.New("customer not found")

const (
	// DefaultPeriodDays is the analysis window when the caller does not
	// specify one.
	DefaultPeriodDays = 30

	scoreHistoryLimit = 10
	issueThreshold    = -0.3
	maxIssues         = 5
	issueExcerptLimit = 200
	latestAnalysisTTL = 24 * time.Hour
)

// Orchestrator sequences the four agents into one end-to-end run per
// customer and owns the persistence boundary. Agents depend only on the
// Gateway; the orchestrator is the sole place data is threaded between
// them.
type Orchestrator struct {
	store      Store
	cache      cache.Cache
	backend    ai.Backend
	batchSize  int
	periodDays int
	logger     zerolog.Logger
}

func NewOrchestrator(store Store, c cache.Cache, backend ai.Backend, batchSize, periodDays int, logger zerolog.Logger) *Orchestrator {
	if c == nil {
		c = cache.NopCache{}
	}
	if periodDays <= 0 {
		periodDays = DefaultPeriodDays
	}
	return &Orchestrator{
		store:      store,
		cache:      c,
		backend:    backend,
		batchSize:  batchSize,
		periodDays: periodDays,
		logger:     logger,
	}
}

// Analyze runs the complete health analysis for one customer. Agent-level
// failures are absorbed into deterministic fallbacks; only fetch, persist,
// not-found, and configuration failures surface as errors.
func (o *Orchestrator) Analyze(ctx context.Context, customerID uuid.UUID, periodDays int) (models.AnalysisResult, error) {
	if periodDays <= 0 {
		periodDays = o.periodDays
	}

	// Each run gets its own Gateway bound to the injected credential.
	gw, err := ai.New(o.backend)
	if err != nil {
		return errorResult(customerID, err), err
	}

	o.logger.Info().Stringer("customer_id", customerID).Msg("starting health analysis")

	customer, err := o.store.GetCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: %s", ErrCustomerNotFound, customerID)
		}
		return errorResult(customerID, err), err
	}

	periodEnd := time.Now().UTC()
	periodStart := periodEnd.AddDate(0, 0, -periodDays)

	messages, err := o.store.GetMessagesSince(ctx, customerID, periodStart)
	if err != nil {
		return errorResult(customerID, err), err
	}
	if len(messages) == 0 {
		o.logger.Warn().Stringer("customer_id", customerID).Msg("no messages in analysis period")
		return models.AnalysisResult{
			Status:     models.StatusInsufficientData,
			CustomerID: customerID,
			Message:    "No messages found in analysis period",
		}, nil
	}

	sentimentAgent := agents.NewSentimentAgent(gw, o.batchSize, o.logger)
	outcome := sentimentAgent.Analyze(ctx, messages)

	if err := o.store.BulkUpdateSentiment(ctx, messages, outcome.Results); err != nil {
		return errorResult(customerID, err), err
	}

	customerCtx := models.CustomerContext{
		Name:        customer.Name,
		CompanyName: customer.CompanyName,
		TenureDays:  int(periodEnd.Sub(customer.CreatedAt).Hours() / 24),
	}

	health := agents.NewHealthScoreAgent(gw, o.logger).Calculate(ctx, customerCtx, messages, outcome.Summary)

	history, err := o.store.GetScoreHistory(ctx, customerID, scoreHistoryLimit)
	if err != nil {
		return errorResult(customerID, err), err
	}
	churn := agents.NewChurnAgent(gw, o.logger).Predict(ctx, customerCtx, history, health.Score)

	issues := extractIssues(messages, outcome.Results)
	actions := agents.NewActionItemAgent(gw, o.logger).Generate(ctx, customerCtx, health.Score, health.Components, issues)

	record := models.HealthScoreRecord{
		CustomerID:       customerID,
		Score:            health.Score,
		ChurnProbability: churn.ChurnProbability,
		Components:       health.Components,
		MessagesAnalyzed: len(messages),
		Reasoning:        health.Reasoning,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
	}
	if _, err := o.store.SaveAnalysis(ctx, record, actions); err != nil {
		return errorResult(customerID, err), err
	}

	result := models.AnalysisResult{
		Status:           models.StatusSuccess,
		CustomerID:       customerID,
		HealthScore:      &health,
		ChurnPrediction:  &churn,
		ActionItems:      actions,
		MessagesAnalyzed: len(messages),
		Period:           &models.AnalysisPeriod{Start: periodStart, End: periodEnd},
	}

	if err := o.cache.SetLatestAnalysis(ctx, customerID, result, latestAnalysisTTL); err != nil {
		o.logger.Warn().Err(err).Stringer("customer_id", customerID).Msg("failed to cache analysis result")
	}

	o.logger.Info().
		Stringer("customer_id", customerID).
		Int("score", health.Score).
		Float64("churn_probability", churn.ChurnProbability).
		Int("action_items", len(actions)).
		Msg("analysis complete")

	return result, nil
}

// AnalyzeAll runs the pipeline for every active customer. One customer's
// failure never aborts the batch; it becomes an individual error entry.
func (o *Orchestrator) AnalyzeAll(ctx context.Context) ([]models.AnalysisResult, error) {
	customers, err := o.store.ListActiveCustomers(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]models.AnalysisResult, 0, len(customers))
	for _, c := range customers {
		result, err := o.Analyze(ctx, c.ID, 0)
		if err != nil {
			o.logger.Error().Err(err).Stringer("customer_id", c.ID).Msg("customer analysis failed")
			results = append(results, errorResult(c.ID, err))
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// extractIssues collects excerpts of strongly negative messages, ordered by
// original position.
func extractIssues(messages []models.Message, results []models.SentimentResult) []string {
	var issues []string
	for _, r := range results {
		if r.Score >= issueThreshold {
			continue
		}
		if r.Index < 0 || r.Index >= len(messages) {
			continue
		}
		issues = append(issues, truncateRunes(messages[r.Index].Content, issueExcerptLimit))
		if len(issues) == maxIssues {
			break
		}
	}
	return issues
}

func errorResult(customerID uuid.UUID, err error) models.AnalysisResult {
	return models.AnalysisResult{
		Status:     models.StatusError,
		CustomerID: customerID,
		Error:      err.Error(),
	}
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
