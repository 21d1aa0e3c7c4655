package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pulsecheck/backend/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// WithTx runs fn inside a transaction, committing only if fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateCustomer(ctx context.Context, c models.Customer) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO customers (name, company_name, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`, c.Name, c.CompanyName, c.Email, c.IsActive).Scan(&id)
	return id, err
}

func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (models.Customer, error) {
	var c models.Customer
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(company_name, ''), COALESCE(email, ''), is_active, created_at, updated_at
		FROM customers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CompanyName, &c.Email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context, activeOnly bool) ([]models.Customer, error) {
	query := `SELECT id, name, COALESCE(company_name, ''), COALESCE(email, ''), is_active, created_at, updated_at FROM customers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.CompanyName, &c.Email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListActiveCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.ListCustomers(ctx, true)
}

// InsertMessages bulk-loads ingested messages.
func (s *Store) InsertMessages(ctx context.Context, messages []models.Message) (int64, error) {
	rows := make([][]any, 0, len(messages))
	for _, m := range messages {
		id := m.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		rows = append(rows, []any{id, m.CustomerID, m.UserType, m.Content, m.MessageTimestamp, time.Now().UTC()})
	}
	return s.Pool.CopyFrom(ctx,
		pgx.Identifier{"messages"},
		[]string{"id", "customer_id", "user_type", "content", "message_timestamp", "created_at"},
		pgx.CopyFromRows(rows))
}

// GetMessagesSince returns a customer's messages in [since, now), oldest
// first.
func (s *Store) GetMessagesSince(ctx context.Context, customerID uuid.UUID, since time.Time) ([]models.Message, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, customer_id, user_type, content,
			sentiment_score, sentiment_label, sentiment_magnitude, is_analyzed,
			message_timestamp, created_at
		FROM messages
		WHERE customer_id = $1 AND message_timestamp >= $2
		ORDER BY message_timestamp ASC
	`, customerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.CustomerID, &m.UserType, &m.Content,
			&m.SentimentScore, &m.SentimentLabel, &m.SentimentMagnitude, &m.IsAnalyzed,
			&m.MessageTimestamp, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// BulkUpdateSentiment writes per-message sentiment back by original index
// mapping. Results whose index falls outside the message slice are skipped.
func (s *Store) BulkUpdateSentiment(ctx context.Context, messages []models.Message, results []models.SentimentResult) error {
	batch := &pgx.Batch{}
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(messages) {
			continue
		}
		batch.Queue(`
			UPDATE messages
			SET sentiment_score = $1, sentiment_label = $2, sentiment_magnitude = $3, is_analyzed = TRUE
			WHERE id = $4
		`, r.Score, r.Label, r.Magnitude, messages[r.Index].ID)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := s.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("update sentiment: %w", err)
		}
	}
	return nil
}

// GetScoreHistory returns up to limit score points, most recent first.
func (s *Store) GetScoreHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]models.ScorePoint, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT score, created_at FROM health_scores
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScorePoint
	for rows.Next() {
		var p models.ScorePoint
		if err := rows.Scan(&p.Score, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListHealthScores(ctx context.Context, customerID uuid.UUID, limit int) ([]models.HealthScoreRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, customer_id, score, churn_probability, score_components,
			messages_analyzed, COALESCE(reasoning, ''),
			calculation_period_start, calculation_period_end, created_at
		FROM health_scores
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HealthScoreRecord
	for rows.Next() {
		rec, err := scanHealthScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) GetLatestHealthScore(ctx context.Context, customerID uuid.UUID) (models.HealthScoreRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, customer_id, score, churn_probability, score_components,
			messages_analyzed, COALESCE(reasoning, ''),
			calculation_period_start, calculation_period_end, created_at
		FROM health_scores
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, customerID)
	return scanHealthScore(row)
}

func scanHealthScore(row pgx.Row) (models.HealthScoreRecord, error) {
	var rec models.HealthScoreRecord
	var components []byte
	if err := row.Scan(&rec.ID, &rec.CustomerID, &rec.Score, &rec.ChurnProbability, &components,
		&rec.MessagesAnalyzed, &rec.Reasoning, &rec.PeriodStart, &rec.PeriodEnd, &rec.CreatedAt); err != nil {
		return models.HealthScoreRecord{}, err
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &rec.Components); err != nil {
			return models.HealthScoreRecord{}, err
		}
	}
	return rec, nil
}

// SaveAnalysis persists the health score and its action items in one
// transaction. This is the pipeline's only commit boundary: a failure
// anywhere rolls everything back.
func (s *Store) SaveAnalysis(ctx context.Context, record models.HealthScoreRecord, items []models.ActionItem) (uuid.UUID, error) {
	var scoreID uuid.UUID
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		components, err := json.Marshal(record.Components)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO health_scores
				(customer_id, score, churn_probability, score_components,
				 messages_analyzed, reasoning, calculation_period_start, calculation_period_end, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
			RETURNING id
		`, record.CustomerID, record.Score, record.ChurnProbability, components,
			record.MessagesAnalyzed, record.Reasoning, record.PeriodStart, record.PeriodEnd,
		).Scan(&scoreID); err != nil {
			return fmt.Errorf("insert health score: %w", err)
		}

		for _, item := range items {
			metrics, err := json.Marshal(item.SuccessMetrics)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO action_items
					(customer_id, health_score_id, title, description, priority, category,
					 status, impact_score, effort_score, suggested_timeline, success_metrics, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,'pending',$7,$8,$9,$10,NOW(),NOW())
			`, record.CustomerID, scoreID, item.Title, item.Description, item.Priority, item.Category,
				item.ImpactScore, item.EffortScore, item.SuggestedTimeline, metrics); err != nil {
				return fmt.Errorf("insert action item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return scoreID, nil
}

func (s *Store) ListActionItems(ctx context.Context, customerID uuid.UUID, status, priority string, limit int) ([]models.ActionItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, customer_id, health_score_id, title, COALESCE(description, ''), priority,
			COALESCE(category, ''), status, impact_score, effort_score,
			COALESCE(suggested_timeline, ''), success_metrics, created_at
		FROM action_items
		WHERE customer_id = $1`
	args := []any{customerID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if priority != "" {
		args = append(args, priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActionItem
	for rows.Next() {
		var item models.ActionItem
		var metrics []byte
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.HealthScoreID, &item.Title, &item.Description,
			&item.Priority, &item.Category, &item.Status, &item.ImpactScore, &item.EffortScore,
			&item.SuggestedTimeline, &metrics, &item.CreatedAt); err != nil {
			return nil, err
		}
		if len(metrics) > 0 {
			if err := json.Unmarshal(metrics, &item.SuccessMetrics); err != nil {
				return nil, err
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) CreateRun(ctx context.Context, status string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO analysis_runs (status, started_at) VALUES ($1, NOW()) RETURNING id
	`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE analysis_runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3
	`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	var r models.Run
	err := s.Pool.QueryRow(ctx, `
		SELECT id, started_at, finished_at, status, summary
		FROM analysis_runs ORDER BY started_at DESC LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status, &r.Summary)
	return r, err
}
