// Package metrics defines the tiny instrumentation surface the core
// depends on: counter increment, histogram observe, gauge set. Two
// implementations exist — a Prometheus backend and a no-op — so the
// scoring code never imports a metrics library directly.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metric names and their label orders.
const (
	EvaluationsTotal    = "nedc_evaluations_total"           // algorithm, pipeline, status
	EvaluationDuration  = "nedc_evaluation_duration_seconds" // algorithm, pipeline
	ParityFailuresTotal = "nedc_parity_failures_total"       // algorithm
	ActiveEvaluations   = "nedc_active_evaluations"          // no labels
	UpgradesRejected    = "nedc_ws_upgrades_rejected_total"  // no labels
)

// Recorder is the three-operation metrics interface.
type Recorder interface {
	CounterInc(name string, labels ...string)
	HistogramObserve(name string, value float64, labels ...string)
	GaugeSet(name string, value float64)
}

// Tracker wraps a Recorder with the evaluation bookkeeping: active
// gauge, status counter and duration histogram around each run.
type Tracker struct {
	Rec    Recorder
	active atomic.Int64
}

// NewTracker builds a tracker over the given recorder.
func NewTracker(rec Recorder) *Tracker {
	return &Tracker{Rec: rec}
}

// Timed runs fn, counting it as one evaluation and observing its
// duration on every exit path.
func (t *Tracker) Timed(algorithm, pipeline string, fn func() error) (err error) {
	t.Rec.GaugeSet(ActiveEvaluations, float64(t.active.Add(1)))
	start := time.Now()

	// A panic in fn leaves status at "failure"; the deferred block
	// still records it and the panic continues to unwind.
	status := "failure"
	defer func() {
		elapsed := time.Since(start).Seconds()
		t.Rec.CounterInc(EvaluationsTotal, algorithm, pipeline, status)
		t.Rec.HistogramObserve(EvaluationDuration, elapsed, algorithm, pipeline)
		t.Rec.GaugeSet(ActiveEvaluations, float64(t.active.Add(-1)))
	}()

	err = fn()
	if err == nil {
		status = "success"
	}
	return err
}

// ParityFailure records one parity mismatch for an algorithm.
func (t *Tracker) ParityFailure(algorithm string) {
	t.Rec.CounterInc(ParityFailuresTotal, algorithm)
}

// CacheHit records an evaluation served from cache: success with a
// zero-duration observation.
func (t *Tracker) CacheHit(algorithm, pipeline string) {
	t.Rec.CounterInc(EvaluationsTotal, algorithm, pipeline, "success")
	t.Rec.HistogramObserve(EvaluationDuration, 0, algorithm, pipeline)
}
