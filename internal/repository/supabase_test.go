package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/pkg/supabase"
)

func TestSupabaseEntryAppend_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if _, ok := body["attachments"].([]interface{}); !ok {
			t.Errorf("attachments should be an empty array, got %v", body["attachments"])
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"23505"}`))
	}))
	defer srv.Close()

	repo := NewEntryRepository(supabase.NewClient(srv.URL, "k"))
	err := repo.Append(context.Background(), entryAt("a", "u1", 0, 5))
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestSupabaseEntryQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("order") != "timestamp.desc,created_at.desc" {
			t.Errorf("order = %q", q.Get("order"))
		}
		if got := q["timestamp"]; len(got) != 1 || got[0] != "lte.2026-04-01T10:00:00Z" {
			t.Errorf("timestamp filter = %v", got)
		}
		w.Write([]byte(`[{"id":"a","user_id":"u1","timestamp":"2026-04-01T09:00:00Z","mood_score":6,"tags":null,"source":"web"}]`))
	}))
	defer srv.Close()

	repo := NewEntryRepository(supabase.NewClient(srv.URL, "k"))
	end := base.Add(time.Hour)
	entries, err := repo.Query(context.Background(), "u1", nil, &end)
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].MoodScore != 6 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Tags == nil {
		t.Error("tags should be normalized to an empty slice")
	}
}

func TestSupabaseInsightReplace(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodDelete:
			if r.URL.Query().Get("user_id") != "eq.u1" {
				t.Errorf("delete filter = %q", r.URL.RawQuery)
			}
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/rest/v1/mood_insight_runs":
			var marker map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&marker); err != nil {
				t.Errorf("decode marker: %v", err)
			}
			if marker["user_id"] != "u1" || marker["data_sufficient"] != true {
				t.Errorf("unexpected marker: %v", marker)
			}
			w.WriteHeader(http.StatusCreated)
		default:
			var rows []map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if len(rows) != 2 || rows[1]["position"].(float64) != 1 {
				t.Errorf("unexpected rows: %v", rows)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	repo := NewInsightRepository(supabase.NewClient(srv.URL, "k"))
	err := repo.Replace(context.Background(), "u1", models.InsightRun{GeneratedAt: base, DataSufficient: true}, []models.Insight{
		{ID: "i1", Type: models.InsightTypeAlert},
		{ID: "i2", Type: models.InsightTypeTrend},
	})
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	want := []string{
		"DELETE /rest/v1/mood_insights",
		"POST /rest/v1/mood_insights",
		"POST /rest/v1/mood_insight_runs",
	}
	if len(calls) != len(want) {
		t.Fatalf("unexpected call sequence %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestSupabaseInsightReplace_EmptyOnlyRecordsRun(t *testing.T) {
	var posts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts = append(posts, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	repo := NewInsightRepository(supabase.NewClient(srv.URL, "k"))
	if err := repo.Replace(context.Background(), "u1", models.InsightRun{GeneratedAt: base}, nil); err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if len(posts) != 1 || posts[0] != "/rest/v1/mood_insight_runs" {
		t.Errorf("expected only the run marker upsert, got %v", posts)
	}
}

func TestSupabaseInsightLastRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/mood_insight_runs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("user_id") == "eq.u1" {
			w.Write([]byte(`[{"generated_at":"2026-04-01T09:00:00Z","data_sufficient":false}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	repo := NewInsightRepository(supabase.NewClient(srv.URL, "k"))
	run, err := repo.LastRun(context.Background(), "u1")
	if err != nil {
		t.Fatalf("LastRun returned error: %v", err)
	}
	if run.DataSufficient || run.GeneratedAt.Hour() != 9 {
		t.Errorf("unexpected run: %+v", run)
	}

	if _, err := repo.LastRun(context.Background(), "u2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
