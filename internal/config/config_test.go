package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %s", cfg.GeminiModel)
	}
	if cfg.SentimentBatchSize != 50 {
		t.Fatalf("expected default batch size 50, got %d", cfg.SentimentBatchSize)
	}
	if cfg.AnalysisPeriodDays != 30 {
		t.Fatalf("expected default period 30, got %d", cfg.AnalysisPeriodDays)
	}
	if cfg.ScoreCalculationHour != 2 {
		t.Fatalf("expected default hour 2, got %d", cfg.ScoreCalculationHour)
	}
	if !cfg.SchedulerEnabled {
		t.Fatalf("scheduler should default to enabled")
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("expected default timeout 60s, got %v", cfg.RequestTimeout)
	}
	if cfg.CORSAllowed != "*" {
		t.Fatalf("expected default cors *, got %s", cfg.CORSAllowed)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SENTIMENT_BATCH_SIZE", "10")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Fatalf("expected env port override, got %s", cfg.Port)
	}
	if cfg.SentimentBatchSize != 10 {
		t.Fatalf("expected batch size override, got %d", cfg.SentimentBatchSize)
	}
	if cfg.SchedulerEnabled {
		t.Fatalf("expected scheduler disabled by env")
	}
}
