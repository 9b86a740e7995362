package repository

import (
	"context"
	"errors"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when an entry id is already stored
	ErrDuplicateID = errors.New("duplicate id")
)

// EntryRepository defines the interface for mood entry data access.
// Entries are append-only; reads return newest first.
type EntryRepository interface {
	Append(ctx context.Context, entry *models.MoodEntry) error
	GetByID(ctx context.Context, userID, id string) (*models.MoodEntry, error)
	// Query returns entries with start <= timestamp <= end; nil bounds are open
	Query(ctx context.Context, userID string, start, end *time.Time) ([]models.MoodEntry, error)
	// Recent returns up to limit of the latest entries
	Recent(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error)
}

// InsightRepository defines the interface for generated insight data access.
// Each generation replaces the user's previous set wholesale.
type InsightRepository interface {
	// Replace stores insights and run as the user's latest generation
	Replace(ctx context.Context, userID string, run models.InsightRun, insights []models.Insight) error
	// LastRun returns the latest generation marker, or ErrNotFound when
	// insights were never generated for the user
	LastRun(ctx context.Context, userID string) (*models.InsightRun, error)
	// GetValidByUserID returns stored insights not expired at now, in stored order
	GetValidByUserID(ctx context.Context, userID string, now time.Time) ([]models.Insight, error)
}
