package metrics

import (
	"errors"
	"sync"
	"testing"
)

// capture records calls for assertions.
type capture struct {
	mu       sync.Mutex
	counters map[string]int
	observed map[string][]float64
	gauges   map[string]float64
}

func newCapture() *capture {
	return &capture{
		counters: make(map[string]int),
		observed: make(map[string][]float64),
		gauges:   make(map[string]float64),
	}
}

func (c *capture) CounterInc(name string, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := name
	for _, l := range labels {
		key += "|" + l
	}
	c.counters[key]++
}

func (c *capture) HistogramObserve(name string, value float64, labels ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observed[name] = append(c.observed[name], value)
}

func (c *capture) GaugeSet(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gauges[name] = value
}

func TestTimedSuccess(t *testing.T) {
	rec := newCapture()
	tr := NewTracker(rec)

	err := tr.Timed("taes", "dual", func() error { return nil })
	if err != nil {
		t.Fatalf("timed: %v", err)
	}
	if rec.counters[EvaluationsTotal+"|taes|dual|success"] != 1 {
		t.Errorf("counters = %v", rec.counters)
	}
	if len(rec.observed[EvaluationDuration]) != 1 {
		t.Errorf("observations = %v", rec.observed)
	}
	if rec.gauges[ActiveEvaluations] != 0 {
		t.Errorf("active gauge = %v, want 0 after completion", rec.gauges[ActiveEvaluations])
	}
}

func TestTimedFailureStillObserves(t *testing.T) {
	rec := newCapture()
	tr := NewTracker(rec)

	wantErr := errors.New("boom")
	if err := tr.Timed("dp", "beta", func() error { return wantErr }); err != wantErr {
		t.Fatalf("err = %v", err)
	}
	if rec.counters[EvaluationsTotal+"|dp|beta|failure"] != 1 {
		t.Errorf("counters = %v", rec.counters)
	}
	if len(rec.observed[EvaluationDuration]) != 1 {
		t.Error("duration not observed on failure path")
	}
}

func TestParityFailureAndCacheHit(t *testing.T) {
	rec := newCapture()
	tr := NewTracker(rec)

	tr.ParityFailure("epoch")
	if rec.counters[ParityFailuresTotal+"|epoch"] != 1 {
		t.Errorf("counters = %v", rec.counters)
	}

	tr.CacheHit("taes", "dual")
	if rec.counters[EvaluationsTotal+"|taes|dual|success"] != 1 {
		t.Errorf("counters = %v", rec.counters)
	}
	if obs := rec.observed[EvaluationDuration]; len(obs) != 1 || obs[0] != 0 {
		t.Errorf("cache hit observation = %v, want [0]", obs)
	}
}

func TestNoopIsSafe(t *testing.T) {
	tr := NewTracker(Noop{})
	if err := tr.Timed("taes", "dual", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	tr.ParityFailure("taes")
	tr.CacheHit("taes", "dual")
}
