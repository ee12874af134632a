package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetJob(t *testing.T) {
	s := openTest(t)

	completed := time.Now().UTC().Truncate(time.Millisecond)
	parity := true
	rec := JobRecord{
		ID:           "job-1",
		Status:       "completed",
		Pipeline:     "dual",
		Algorithms:   []string{"taes", "dp"},
		CreatedAt:    completed.Add(-time.Minute),
		CompletedAt:  &completed,
		ParityPassed: &parity,
		Results:      json.RawMessage(`{"taes":{"speedup":3.5}}`),
	}
	if err := s.SaveJob(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("job not found")
	}
	if got.Status != "completed" || got.Pipeline != "dual" {
		t.Errorf("got %+v", got)
	}
	if len(got.Algorithms) != 2 || got.Algorithms[0] != "taes" {
		t.Errorf("algorithms = %v", got.Algorithms)
	}
	if got.ParityPassed == nil || !*got.ParityPassed {
		t.Error("parity flag lost")
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completed) {
		t.Errorf("completed_at = %v, want %v", got.CompletedAt, completed)
	}
	if string(got.Results) != `{"taes":{"speedup":3.5}}` {
		t.Errorf("results = %s", got.Results)
	}
}

func TestGetJobMissing(t *testing.T) {
	s := openTest(t)
	got, err := s.GetJob("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestSaveJobUpsert(t *testing.T) {
	s := openTest(t)
	rec := JobRecord{ID: "job-1", Status: "completed", Pipeline: "beta", CreatedAt: time.Now()}
	if err := s.SaveJob(rec); err != nil {
		t.Fatal(err)
	}
	rec.Status = "failed"
	rec.Error = "beta pipeline: boom"
	if err := s.SaveJob(rec); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetJob("job-1")
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if got.Status != "failed" || got.Error != "beta pipeline: boom" {
		t.Errorf("upsert lost fields: %+v", got)
	}
}

func TestListJobs(t *testing.T) {
	s := openTest(t)
	base := time.Now().UTC()
	for i, status := range []string{"completed", "failed", "completed"} {
		rec := JobRecord{
			ID:        "job-" + string(rune('a'+i)),
			Status:    status,
			Pipeline:  "dual",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveJob(rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListJobs(10, 0, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Newest first.
	if all[0].ID != "job-c" {
		t.Errorf("order = %v", []string{all[0].ID, all[1].ID, all[2].ID})
	}

	completed, err := s.ListJobs(10, 0, "completed")
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 2 {
		t.Errorf("completed = %d, want 2", len(completed))
	}

	page, err := s.ListJobs(1, 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "job-b" {
		t.Errorf("pagination gave %+v", page)
	}
}
