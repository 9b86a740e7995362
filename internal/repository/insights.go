package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/pkg/supabase"
)

const (
	insightsTable    = "mood_insights"
	insightRunsTable = "mood_insight_runs"
)

type insightRepository struct {
	client *supabase.Client
}

// NewInsightRepository creates a new PostgREST-backed insight repository
func NewInsightRepository(client *supabase.Client) InsightRepository {
	return &insightRepository{client: client}
}

// Replace deletes the user's insights, bulk inserts the new set, then
// upserts the run marker. PostgREST has no multi-statement transaction, so a
// failed insert leaves the user with no stored insights and the previous
// marker until the next generation.
func (r *insightRepository) Replace(ctx context.Context, userID string, run models.InsightRun, insights []models.Insight) error {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
	}
	if err := r.client.DeleteWhere(ctx, insightsTable, query); err != nil {
		return fmt.Errorf("failed to delete insights: %w", err)
	}

	if len(insights) > 0 {
		if err := r.insertAll(ctx, userID, insights); err != nil {
			return err
		}
	}

	marker := map[string]interface{}{
		"user_id":         userID,
		"generated_at":    run.GeneratedAt,
		"data_sufficient": run.DataSufficient,
	}
	if err := r.client.Upsert(ctx, insightRunsTable, marker); err != nil {
		return fmt.Errorf("failed to record insight run: %w", err)
	}
	return nil
}

func (r *insightRepository) insertAll(ctx context.Context, userID string, insights []models.Insight) error {
	// PostgREST requires all objects to have the same keys for bulk insert
	data := make([]map[string]interface{}, len(insights))
	for i, ins := range insights {
		data[i] = map[string]interface{}{
			"id":           ins.ID,
			"user_id":      userID,
			"position":     i,
			"type":         ins.Type,
			"priority":     ins.Priority,
			"title":        ins.Title,
			"description":  ins.Description,
			"actionable":   ins.Actionable,
			"source_key":   ins.SourceKey,
			"metric_value": ins.MetricValue,
			"generated_at": ins.GeneratedAt,
			"expires_at":   ins.ExpiresAt,
		}
	}

	if _, err := r.client.Insert(ctx, insightsTable, data); err != nil {
		return fmt.Errorf("failed to bulk create insights: %w", err)
	}
	return nil
}

func (r *insightRepository) LastRun(ctx context.Context, userID string) (*models.InsightRun, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"select":  "generated_at,data_sufficient",
		"limit":   1,
	}

	body, err := r.client.Query(ctx, insightRunsTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get insight run: %w", err)
	}

	var runs []models.InsightRun
	if err := json.Unmarshal(body, &runs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return &runs[0], nil
}

func (r *insightRepository) GetValidByUserID(ctx context.Context, userID string, now time.Time) ([]models.Insight, error) {
	query := map[string]interface{}{
		"user_id": fmt.Sprintf("eq.%s", userID),
		"or":      fmt.Sprintf("(expires_at.is.null,expires_at.gt.%s)", now.UTC().Format(time.RFC3339Nano)),
		"select":  "*",
		"order":   "position.asc",
	}

	body, err := r.client.Query(ctx, insightsTable, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get valid insights: %w", err)
	}

	insights := make([]models.Insight, 0)
	if err := json.Unmarshal(body, &insights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return insights, nil
}
