package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/pkg/supabase"
)

const entriesTable = "mood_entries"

type entryRepository struct {
	client *supabase.Client
}

// NewEntryRepository creates a new PostgREST-backed entry repository
func NewEntryRepository(client *supabase.Client) EntryRepository {
	return &entryRepository{client: client}
}

func (r *entryRepository) Append(ctx context.Context, entry *models.MoodEntry) error {
	data := map[string]interface{}{
		"id":          entry.ID,
		"user_id":     entry.UserID,
		"timestamp":   entry.Timestamp,
		"mood_score":  entry.MoodScore,
		"tags":        entry.Tags,
		"notes":       entry.Notes,
		"attachments": entry.Attachments,
		"source":      entry.Source,
		"assessment":  entry.Assessment,
		"created_at":  entry.CreatedAt,
	}
	// attachments column is NOT NULL
	if entry.Attachments == nil {
		data["attachments"] = []models.Attachment{}
	}

	if _, err := r.client.Insert(ctx, entriesTable, data); err != nil {
		var supaErr *supabase.Error
		if errors.As(err, &supaErr) && supaErr.StatusCode == http.StatusConflict {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to append entry: %w", err)
	}
	return nil
}

func (r *entryRepository) GetByID(ctx context.Context, userID, id string) (*models.MoodEntry, error) {
	query := map[string]interface{}{
		"id":      fmt.Sprintf("eq.%s", id),
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
	}

	entries, err := r.fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

func (r *entryRepository) Query(ctx context.Context, userID string, start, end *time.Time) ([]models.MoodEntry, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"order":   "timestamp.desc,created_at.desc",
	}

	var bounds []string
	if start != nil {
		bounds = append(bounds, "gte."+start.UTC().Format(time.RFC3339Nano))
	}
	if end != nil {
		bounds = append(bounds, "lte."+end.UTC().Format(time.RFC3339Nano))
	}
	if len(bounds) > 0 {
		query["timestamp"] = bounds
	}

	entries, err := r.fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return entries, nil
}

func (r *entryRepository) Recent(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "*",
		"order":   "timestamp.desc,created_at.desc",
		"limit":   strconv.Itoa(limit),
	}

	entries, err := r.fetch(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent entries: %w", err)
	}
	return entries, nil
}

func (r *entryRepository) fetch(ctx context.Context, query map[string]interface{}) ([]models.MoodEntry, error) {
	body, err := r.client.Query(ctx, entriesTable, query)
	if err != nil {
		return nil, err
	}

	entries := make([]models.MoodEntry, 0)
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	for i := range entries {
		if entries[i].Tags == nil {
			entries[i].Tags = []string{}
		}
	}
	return entries, nil
}
