package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// uniqueViolation is the postgres SQLSTATE for a duplicate key
const uniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS mood_entries (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		mood_score SMALLINT NOT NULL CHECK (mood_score BETWEEN 1 AND 10),
		tags TEXT[] NOT NULL DEFAULT '{}',
		notes TEXT NOT NULL DEFAULT '',
		attachments JSONB NOT NULL DEFAULT '[]',
		source TEXT NOT NULL,
		assessment JSONB,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS mood_entries_user_timestamp_idx
		ON mood_entries (user_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS mood_insights (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		priority TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		actionable BOOLEAN NOT NULL DEFAULT FALSE,
		source_key TEXT NOT NULL,
		metric_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
		expires_at TIMESTAMP WITH TIME ZONE
	)`,
	`CREATE INDEX IF NOT EXISTS mood_insights_user_idx
		ON mood_insights (user_id, position)`,
	`CREATE TABLE IF NOT EXISTS mood_insight_runs (
		user_id TEXT PRIMARY KEY,
		generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
		data_sufficient BOOLEAN NOT NULL
	)`,
}

// PostgresStore persists entries and insights through database/sql
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with the lib/pq driver and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an existing connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables and indexes if they don't exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error creating tables: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Entries returns the store as an EntryRepository
func (s *PostgresStore) Entries() EntryRepository { return postgresEntries{s.db} }

// Insights returns the store as an InsightRepository
func (s *PostgresStore) Insights() InsightRepository { return postgresInsights{s.db} }

const entryColumns = `id, user_id, timestamp, mood_score, tags, notes, attachments, source, assessment, created_at`

type postgresEntries struct{ db *sql.DB }

func (p postgresEntries) Append(ctx context.Context, entry *models.MoodEntry) error {
	attachments, err := json.Marshal(nonNilAttachments(entry.Attachments))
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}
	var assessment interface{}
	if entry.Assessment != nil {
		raw, err := json.Marshal(entry.Assessment)
		if err != nil {
			return fmt.Errorf("failed to encode assessment: %w", err)
		}
		assessment = string(raw)
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO mood_entries (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.UserID, entry.Timestamp, entry.MoodScore, pq.Array(entry.Tags), entry.Notes,
		string(attachments), string(entry.Source), assessment, entry.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

func (p postgresEntries) GetByID(ctx context.Context, userID, id string) (*models.MoodEntry, error) {
	// the id column is UUID, so anything else can never match
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM mood_entries WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

func (p postgresEntries) Query(ctx context.Context, userID string, start, end *time.Time) ([]models.MoodEntry, error) {
	// nil bounds pass through as NULL and disable the predicate
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM mood_entries
		WHERE user_id = $1
			AND ($2::timestamptz IS NULL OR timestamp >= $2)
			AND ($3::timestamptz IS NULL OR timestamp <= $3)
		ORDER BY timestamp DESC, created_at DESC`,
		userID, nullTime(start), nullTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return scanEntries(rows)
}

func (p postgresEntries) Recent(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM mood_entries
		WHERE user_id = $1
		ORDER BY timestamp DESC, created_at DESC
		LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent entries: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.MoodEntry, error) {
	defer rows.Close()

	entries := make([]models.MoodEntry, 0)
	for rows.Next() {
		var (
			e           models.MoodEntry
			tags        pq.StringArray
			attachments []byte
			assessment  []byte
			source      string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Timestamp, &e.MoodScore, &tags, &e.Notes,
			&attachments, &source, &assessment, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Tags = []string(tags)
		if e.Tags == nil {
			e.Tags = []string{}
		}
		e.Source = models.EntrySource(source)
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &e.Attachments); err != nil {
				return nil, fmt.Errorf("failed to decode attachments: %w", err)
			}
		}
		if len(assessment) > 0 {
			e.Assessment = &models.AssessmentPairing{}
			if err := json.Unmarshal(assessment, e.Assessment); err != nil {
				return nil, fmt.Errorf("failed to decode assessment: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	return entries, nil
}

type postgresInsights struct{ db *sql.DB }

// Replace swaps the user's insight set and run marker inside one transaction
func (p postgresInsights) Replace(ctx context.Context, userID string, run models.InsightRun, insights []models.Insight) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mood_insights WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete insights: %w", err)
	}

	for i, ins := range insights {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO mood_insights (id, user_id, position, type, priority, title, description,
				actionable, source_key, metric_value, generated_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			ins.ID, userID, i, string(ins.Type), string(ins.Priority), ins.Title, ins.Description,
			ins.Actionable, ins.SourceKey, ins.MetricValue, ins.GeneratedAt, nullTime(ins.ExpiresAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO mood_insight_runs (user_id, generated_at, data_sufficient)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET generated_at = EXCLUDED.generated_at, data_sufficient = EXCLUDED.data_sufficient`,
		userID, run.GeneratedAt, run.DataSufficient,
	)
	if err != nil {
		return fmt.Errorf("failed to record insight run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insights: %w", err)
	}
	return nil
}

func (p postgresInsights) GetValidByUserID(ctx context.Context, userID string, now time.Time) ([]models.Insight, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, user_id, type, priority, title, description, actionable, source_key,
			metric_value, generated_at, expires_at
		FROM mood_insights
		WHERE user_id = $1 AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY position`,
		userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get valid insights: %w", err)
	}
	defer rows.Close()

	insights := make([]models.Insight, 0)
	for rows.Next() {
		var (
			ins       models.Insight
			insType   string
			priority  string
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&ins.ID, &ins.UserID, &insType, &priority, &ins.Title, &ins.Description,
			&ins.Actionable, &ins.SourceKey, &ins.MetricValue, &ins.GeneratedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		ins.Type = models.InsightType(insType)
		ins.Priority = models.Priority(priority)
		if expiresAt.Valid {
			t := expiresAt.Time
			ins.ExpiresAt = &t
		}
		insights = append(insights, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read insights: %w", err)
	}
	return insights, nil
}

func (p postgresInsights) LastRun(ctx context.Context, userID string) (*models.InsightRun, error) {
	var run models.InsightRun
	err := p.db.QueryRowContext(ctx,
		`SELECT generated_at, data_sufficient FROM mood_insight_runs WHERE user_id = $1`, userID,
	).Scan(&run.GeneratedAt, &run.DataSufficient)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight run: %w", err)
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nonNilAttachments(a []models.Attachment) []models.Attachment {
	if a == nil {
		return []models.Attachment{}
	}
	return a
}
