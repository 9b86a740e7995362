package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// MemoryStore keeps entries and insights in process. It implements both
// EntryRepository and InsightRepository and is used for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string][]models.MoodEntry // user id -> newest first
	ids      map[string]struct{}
	insights map[string][]models.Insight
	runs     map[string]models.InsightRun
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string][]models.MoodEntry),
		ids:      make(map[string]struct{}),
		insights: make(map[string][]models.Insight),
		runs:     make(map[string]models.InsightRun),
	}
}

// Entries returns the store as an EntryRepository
func (s *MemoryStore) Entries() EntryRepository { return memoryEntries{s} }

// Insights returns the store as an InsightRepository
func (s *MemoryStore) Insights() InsightRepository { return memoryInsights{s} }

type memoryEntries struct{ s *MemoryStore }

func (m memoryEntries) Append(ctx context.Context, entry *models.MoodEntry) error {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[entry.ID]; exists {
		return ErrDuplicateID
	}

	list := s.entries[entry.UserID]
	// first position whose timestamp is not after the new entry, so equal
	// timestamps place the later append first
	i := sort.Search(len(list), func(i int) bool {
		return !list[i].Timestamp.After(entry.Timestamp)
	})
	list = append(list, models.MoodEntry{})
	copy(list[i+1:], list[i:])
	list[i] = cloneEntry(*entry)

	s.entries[entry.UserID] = list
	s.ids[entry.ID] = struct{}{}
	return nil
}

func (m memoryEntries) GetByID(ctx context.Context, userID, id string) (*models.MoodEntry, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries[userID] {
		if e.ID == id {
			out := cloneEntry(e)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memoryEntries) Query(ctx context.Context, userID string, start, end *time.Time) ([]models.MoodEntry, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MoodEntry, 0)
	for _, e := range s.entries[userID] {
		if start != nil && e.Timestamp.Before(*start) {
			// newest first, so everything after is older still
			break
		}
		if end != nil && e.Timestamp.After(*end) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	return out, nil
}

func (m memoryEntries) Recent(ctx context.Context, userID string, limit int) ([]models.MoodEntry, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.entries[userID]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]models.MoodEntry, len(list))
	for i, e := range list {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

type memoryInsights struct{ s *MemoryStore }

func (m memoryInsights) Replace(ctx context.Context, userID string, run models.InsightRun, insights []models.Insight) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored := make([]models.Insight, len(insights))
	copy(stored, insights)
	m.s.insights[userID] = stored
	m.s.runs[userID] = run
	return nil
}

func (m memoryInsights) LastRun(ctx context.Context, userID string) (*models.InsightRun, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	run, ok := m.s.runs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &run, nil
}

func (m memoryInsights) GetValidByUserID(ctx context.Context, userID string, now time.Time) ([]models.Insight, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]models.Insight, 0, len(m.s.insights[userID]))
	for _, ins := range m.s.insights[userID] {
		if ins.ValidAt(now) {
			out = append(out, ins)
		}
	}
	return out, nil
}

// cloneEntry copies the slices so callers cannot mutate stored history
func cloneEntry(e models.MoodEntry) models.MoodEntry {
	if e.Tags != nil {
		tags := make([]string, len(e.Tags))
		copy(tags, e.Tags)
		e.Tags = tags
	}
	if e.Attachments != nil {
		attachments := make([]models.Attachment, len(e.Attachments))
		copy(attachments, e.Attachments)
		e.Attachments = attachments
	}
	if e.Assessment != nil {
		a := *e.Assessment
		a.Scores = make([]models.FactorScore, len(e.Assessment.Scores))
		copy(a.Scores, e.Assessment.Scores)
		e.Assessment = &a
	}
	return e
}
