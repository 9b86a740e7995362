package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MinMoodScore and MaxMoodScore bound every self-reported mood score
	MinMoodScore = 1
	MaxMoodScore = 10
)

// ErrValidation is wrapped by every ValidationError so callers can match with errors.Is
var ErrValidation = errors.New("validation failed")

// EntrySource identifies which collaborator captured an entry
type EntrySource string

const (
	EntrySourceWeb    EntrySource = "web"
	EntrySourceBot    EntrySource = "bot"
	EntrySourceImport EntrySource = "import"
)

// AttachmentKind classifies files attached to an entry
type AttachmentKind string

const (
	AttachmentKindVoice AttachmentKind = "voice"
	AttachmentKindImage AttachmentKind = "image"
	AttachmentKindFile  AttachmentKind = "file"
)

// Attachment references media stored by the upload collaborator
type Attachment struct {
	Kind AttachmentKind `json:"kind"`
	URL  string         `json:"url"`
}

// FactorScore is one external screening score paired with a mood entry
type FactorScore struct {
	Factor FactorKind `json:"factor"`
	Score  float64    `json:"score"`
}

// AssessmentPairing holds clinical scores captured near the entry's timestamp.
// The caller pairs assessments before appending; the engine never searches for them.
type AssessmentPairing struct {
	Scores         []FactorScore `json:"scores"`
	TimeGapMinutes int           `json:"time_gap_minutes"`
}

// ScoreFor returns the paired score for a factor, if present
func (a *AssessmentPairing) ScoreFor(kind FactorKind) (float64, bool) {
	if a == nil {
		return 0, false
	}
	for _, s := range a.Scores {
		if s.Factor == kind {
			return s.Score, true
		}
	}
	return 0, false
}

// MoodEntry is one immutable, timestamped mood self-report.
// Corrections are appended as new entries, never edited in place.
type MoodEntry struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Timestamp   time.Time          `json:"timestamp"`
	MoodScore   int                `json:"mood_score"`
	Tags        []string           `json:"tags"`
	Notes       string             `json:"notes,omitempty"`
	Attachments []Attachment       `json:"attachments,omitempty"`
	Source      EntrySource        `json:"source"`
	Assessment  *AssessmentPairing `json:"assessment,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// CreateEntryRequest is the ingestion payload from the web or bot layer
type CreateEntryRequest struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	MoodScore   int                `json:"mood_score"`
	Tags        []string           `json:"tags"`
	Notes       string             `json:"notes"`
	Attachments []Attachment       `json:"attachments"`
	Source      EntrySource        `json:"source"`
	Assessment  *AssessmentPairing `json:"assessment"`
}

// FieldProblem describes one invalid field
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError collects every field problem found in an entry
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, fmt.Sprintf("%s %s", p.Field, p.Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(field, code, format string, args ...any) {
	e.Problems = append(e.Problems, FieldProblem{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

// Validate checks the invariants enforced at the ingestion boundary.
// Scores are rejected, never clamped.
func (e *MoodEntry) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(e.UserID) == "" {
		verr.add("user_id", "required", "is required")
	}
	if e.Timestamp.IsZero() {
		verr.add("timestamp", "required", "is required")
	}
	if e.MoodScore < MinMoodScore || e.MoodScore > MaxMoodScore {
		verr.add("mood_score", "out_of_range", "must be between %d and %d, got %d", MinMoodScore, MaxMoodScore, e.MoodScore)
	}
	switch e.Source {
	case EntrySourceWeb, EntrySourceBot, EntrySourceImport:
	default:
		verr.add("source", "invalid", "unknown source %q", e.Source)
	}
	for i, tag := range e.Tags {
		if strings.TrimSpace(tag) == "" {
			verr.add(fmt.Sprintf("tags[%d]", i), "empty", "must not be empty")
		}
	}
	for i, a := range e.Attachments {
		switch a.Kind {
		case AttachmentKindVoice, AttachmentKindImage, AttachmentKindFile:
		default:
			verr.add(fmt.Sprintf("attachments[%d].kind", i), "invalid", "unknown attachment kind %q", a.Kind)
		}
		if a.URL == "" {
			verr.add(fmt.Sprintf("attachments[%d].url", i), "required", "is required")
		}
	}
	if e.Assessment != nil {
		seen := make(map[FactorKind]bool)
		for i, s := range e.Assessment.Scores {
			field := fmt.Sprintf("assessment.scores[%d]", i)
			spec, ok := LookupFactor(s.Factor)
			if !ok {
				verr.add(field+".factor", "unknown_factor", "unknown factor %q", s.Factor)
				continue
			}
			if seen[s.Factor] {
				verr.add(field+".factor", "duplicate", "factor %q paired twice", s.Factor)
			}
			seen[s.Factor] = true
			if s.Score < spec.MinScore || s.Score > spec.MaxScore {
				verr.add(field+".score", "out_of_range", "%s score must be between %.0f and %.0f", spec.DisplayName, spec.MinScore, spec.MaxScore)
			}
		}
		if e.Assessment.TimeGapMinutes < 0 {
			verr.add("assessment.time_gap_minutes", "negative", "must not be negative")
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// NormalizeTags trims, lowercases and de-duplicates tags; order is irrelevant
// to analysis so the result is kept in first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := strings.ToLower(strings.TrimSpace(t))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
