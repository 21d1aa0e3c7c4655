package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pulsecheck/backend/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	if err := RunMigrations(url, "../../migrations"); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestAnalysisRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	customerID, err := store.CreateCustomer(ctx, models.Customer{Name: "Integration Test", IsActive: true})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}

	now := time.Now().UTC()
	inserted, err := store.InsertMessages(ctx, []models.Message{
		{CustomerID: customerID, UserType: "customer", Content: "first", MessageTimestamp: now.Add(-2 * time.Hour)},
		{CustomerID: customerID, UserType: "internal", Content: "second", MessageTimestamp: now.Add(-time.Hour)},
	})
	if err != nil {
		t.Fatalf("insert messages: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	messages, err := store.GetMessagesSince(ctx, customerID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(messages) != 2 || messages[0].Content != "first" {
		t.Fatalf("expected 2 messages oldest first, got %+v", messages)
	}

	results := []models.SentimentResult{
		{Index: 0, Score: -0.5, Label: "negative", Magnitude: 0.7},
		{Index: 1, Score: 0.3, Label: "positive", Magnitude: 0.4},
	}
	if err := store.BulkUpdateSentiment(ctx, messages, results); err != nil {
		t.Fatalf("bulk update sentiment: %v", err)
	}

	messages, err = store.GetMessagesSince(ctx, customerID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("reload messages: %v", err)
	}
	if !messages[0].IsAnalyzed || messages[0].SentimentScore == nil || *messages[0].SentimentScore != -0.5 {
		t.Fatalf("sentiment not persisted: %+v", messages[0])
	}

	record := models.HealthScoreRecord{
		CustomerID:       customerID,
		Score:            4,
		ChurnProbability: 0.41,
		Components:       models.ScoreComponents{Sentiment: 3, Engagement: 5, IssueResolution: 4, ToneConsistency: 5, ResponsePattern: 5},
		MessagesAnalyzed: 2,
		Reasoning:        "integration test",
		PeriodStart:      now.Add(-24 * time.Hour),
		PeriodEnd:        now,
	}
	items := []models.ActionItem{{
		Title:          "Schedule customer check-in call",
		Priority:       "high",
		Category:       "relationship",
		ImpactScore:    7,
		EffortScore:    3,
		SuccessMetrics: []string{"Call completed"},
	}}
	scoreID, err := store.SaveAnalysis(ctx, record, items)
	if err != nil {
		t.Fatalf("save analysis: %v", err)
	}
	if scoreID == uuid.Nil {
		t.Fatalf("expected score id")
	}

	latest, err := store.GetLatestHealthScore(ctx, customerID)
	if err != nil {
		t.Fatalf("latest health score: %v", err)
	}
	if latest.Score != 4 || latest.Components.Sentiment != 3 {
		t.Fatalf("unexpected latest score %+v", latest)
	}

	history, err := store.GetScoreHistory(ctx, customerID, 10)
	if err != nil {
		t.Fatalf("score history: %v", err)
	}
	if len(history) != 1 || history[0].Score != 4 {
		t.Fatalf("unexpected history %+v", history)
	}

	saved, err := store.ListActionItems(ctx, customerID, "pending", "", 10)
	if err != nil {
		t.Fatalf("list action items: %v", err)
	}
	if len(saved) != 1 || saved[0].HealthScoreID == nil || *saved[0].HealthScoreID != scoreID {
		t.Fatalf("action item not linked to score: %+v", saved)
	}
}

func TestRunBookkeeping(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, "RUNNING")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.FinishRun(ctx, runID, "SUCCESS", []byte(`{"total": 0}`)); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	latest, err := store.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if latest.Status != "SUCCESS" || latest.FinishedAt == nil {
		t.Fatalf("unexpected run %+v", latest)
	}
}
