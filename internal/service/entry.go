package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/metrics"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
)

type entryService struct {
	entries   repository.EntryRepository
	publisher Publisher
	clock     Clock
	locks     *userLocks
}

// NewEntryService creates a new entry service
func NewEntryService(entries repository.EntryRepository, publisher Publisher, clock Clock) EntryService {
	if clock == nil {
		clock = SystemClock
	}
	return &entryService{
		entries:   entries,
		publisher: publisher,
		clock:     clock,
		locks:     newUserLocks(),
	}
}

// AddEntry validates and appends an entry, then emits entry.added. Appends
// for the same user are serialized so stored order matches arrival order.
func (s *entryService) AddEntry(ctx context.Context, userID string, req *models.CreateEntryRequest) (*models.MoodEntry, error) {
	now := s.clock()

	source := req.Source
	if source == "" {
		source = models.EntrySourceWeb
	}

	entry := &models.MoodEntry{
		UserID:      userID,
		Timestamp:   req.Timestamp,
		MoodScore:   req.MoodScore,
		Tags:        req.Tags,
		Notes:       req.Notes,
		Attachments: req.Attachments,
		Source:      source,
		Assessment:  req.Assessment,
		CreatedAt:   now,
	}

	if err := validateEntry(entry, now); err != nil {
		metrics.ObserveEntryRejected()
		return nil, err
	}

	if req.ID != "" {
		if err := ValidateUUIDv7(req.ID, now); err != nil {
			metrics.ObserveEntryRejected()
			return nil, err
		}
		entry.ID = req.ID
	} else {
		id, err := NewEntryID()
		if err != nil {
			return nil, err
		}
		entry.ID = id
	}
	entry.Tags = models.NormalizeTags(entry.Tags)

	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.entries.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append entry: %w", err)
	}

	metrics.ObserveEntryAppended(entry.Source)
	logger.Ctx(ctx).Info("mood entry appended",
		logger.EntryID(entry.ID),
		logger.Int("mood_score", entry.MoodScore),
		logger.String("source", string(entry.Source)),
	)

	s.publisher.PublishAsync(events.Event{
		Topic:     events.TopicEntryAdded,
		UserID:    userID,
		Timestamp: now,
		Data: map[string]any{
			"entry_id":   entry.ID,
			"mood_score": entry.MoodScore,
			"timestamp":  entry.Timestamp,
		},
	})

	return entry, nil
}

// validateEntry runs the model invariants plus the clock-dependent check
func validateEntry(entry *models.MoodEntry, now time.Time) error {
	var problems []models.FieldProblem
	if err := entry.Validate(); err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		problems = verr.Problems
	}

	if entry.Timestamp.After(now.Add(MaxFutureSkew)) {
		problems = append(problems, models.FieldProblem{
			Field:   "timestamp",
			Message: fmt.Sprintf("cannot be more than %v in the future", MaxFutureSkew),
			Code:    "future_timestamp",
		})
	}

	if len(problems) > 0 {
		return &models.ValidationError{Problems: problems}
	}
	return nil
}

func (s *entryService) GetEntry(ctx context.Context, userID, entryID string) (*models.MoodEntry, error) {
	return s.entries.GetByID(ctx, userID, entryID)
}

func (s *entryService) QueryEntries(ctx context.Context, userID string, start, end *time.Time) ([]models.MoodEntry, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	entries, err := s.entries.Query(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return entries, nil
}

func validateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return &models.ValidationError{Problems: []models.FieldProblem{{
			Field:   "end",
			Message: "must not be before start",
			Code:    "invalid_range",
		}}}
	}
	return nil
}
