package server

import (
	"context"
	"testing"
	"time"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/ws"
)

func newJob(id string, created time.Time) *Job {
	return &Job{
		ID:         id,
		Algorithms: []algo.Algorithm{algo.AlgTAES},
		Pipeline:   orchestration.PipelineBeta,
		Status:     ws.StatusQueued,
		CreatedAt:  created,
	}
}

func TestJobManagerAddAndNext(t *testing.T) {
	m := NewJobManager(4)
	if err := m.Add(newJob("a", time.Now())); err != nil {
		t.Fatalf("add: %v", err)
	}

	id, ok := m.Next(context.Background(), time.Second)
	if !ok || id != "a" {
		t.Errorf("next = %q, %v", id, ok)
	}

	// Empty queue times out.
	start := time.Now()
	if _, ok := m.Next(context.Background(), 50*time.Millisecond); ok {
		t.Error("next on empty queue should time out")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("timeout returned too early")
	}
}

func TestJobManagerNextCancelled(t *testing.T) {
	m := NewJobManager(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := m.Next(ctx, time.Minute); ok {
		t.Error("cancelled ctx should stop Next")
	}
}

func TestJobManagerGetReturnsSnapshot(t *testing.T) {
	m := NewJobManager(4)
	m.Add(newJob("a", time.Now()))

	snap := m.Get("a")
	snap.Status = ws.StatusFailed

	if m.Get("a").Status != ws.StatusQueued {
		t.Error("mutating a snapshot leaked into the store")
	}
	if m.Get("missing") != nil {
		t.Error("unknown id should be nil")
	}
}

func TestJobManagerTerminalImmutable(t *testing.T) {
	m := NewJobManager(4)
	m.Add(newJob("a", time.Now()))

	m.Update("a", func(j *Job) { j.Status = ws.StatusCompleted })
	m.Update("a", func(j *Job) { j.Status = ws.StatusProcessing })

	if got := m.Get("a").Status; got != ws.StatusCompleted {
		t.Errorf("terminal job mutated to %q", got)
	}
}

func TestJobManagerList(t *testing.T) {
	m := NewJobManager(8)
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		m.Add(newJob(id, base.Add(time.Duration(i)*time.Second)))
	}
	m.Update("b", func(j *Job) { j.Status = ws.StatusCompleted })

	all := m.List(10, 0, "")
	if len(all) != 3 || all[0].ID != "c" {
		t.Errorf("list order wrong: %v", ids(all))
	}

	completed := m.List(10, 0, ws.StatusCompleted)
	if len(completed) != 1 || completed[0].ID != "b" {
		t.Errorf("status filter gave %v", ids(completed))
	}

	page := m.List(1, 1, "")
	if len(page) != 1 || page[0].ID != "b" {
		t.Errorf("pagination gave %v", ids(page))
	}

	if got := m.List(10, 5, ""); got != nil {
		t.Errorf("offset past end gave %v", ids(got))
	}
}

func ids(jobs []*Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}

func TestQueueFull(t *testing.T) {
	m := NewJobManager(1)
	if err := m.Add(newJob("a", time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := m.Add(newJob("b", time.Now())); err == nil {
		t.Error("expected queue full error")
	}
	// The rejected job must not linger in the table.
	if m.Get("b") != nil {
		t.Error("rejected job left in store")
	}
}
