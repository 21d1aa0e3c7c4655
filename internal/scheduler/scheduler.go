package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pulsecheck/backend/internal/models"
	"github.com/pulsecheck/backend/internal/service"
)

// RunStore records batch run bookkeeping.
type RunStore interface {
	CreateRun(ctx context.Context, status string) (uuid.UUID, error)
	FinishRun(ctx context.Context, runID uuid.UUID, status string, summary []byte) error
}

type Analyzer interface {
	AnalyzeAll(ctx context.Context) ([]models.AnalysisResult, error)
}

// Scheduler fires one batch analysis per day at the configured local hour.
type Scheduler struct {
	store    RunStore
	analyzer Analyzer
	hour     int
	logger   zerolog.Logger
}

func New(store RunStore, analyzer Analyzer, hour int, logger zerolog.Logger) *Scheduler {
	if hour < 0 || hour > 23 {
		hour = 2
	}
	return &Scheduler{store: store, analyzer: analyzer, hour: hour, logger: logger}
}

// Start blocks until ctx is cancelled. Run it on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Int("hour", s.hour).Msg("scheduler started")
	for {
		next := nextRunAt(time.Now(), s.hour)
		s.logger.Info().Time("next_run", next).Msg("scheduler sleeping")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Msg("scheduler stopped")
			return
		case <-timer.C:
		}

		s.runOnce(ctx)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runID, err := s.store.CreateRun(ctx, "RUNNING")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create scheduled run")
		return
	}

	results, err := s.analyzer.AnalyzeAll(ctx)
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
		s.logger.Error().Err(err).Msg("scheduled analysis failed")
	}

	summary := service.SummarizeResults(results)
	b, _ := json.Marshal(summary)
	if err := s.store.FinishRun(ctx, runID, status, b); err != nil {
		s.logger.Error().Err(err).Msg("failed to finish scheduled run")
		return
	}

	s.logger.Info().
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("insufficient_data", summary.InsufficientData).
		Int("errors", summary.Errors).
		Msg("scheduled analysis complete")
}

// nextRunAt returns the next occurrence of hour after now.
func nextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
