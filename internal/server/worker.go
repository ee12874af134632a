package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/cache"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/config"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/metrics"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/store"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/ws"
)

const dequeueTimeout = time.Second

// Worker drains the job queue: it runs each job's algorithms through
// the orchestrator, consults the result cache, broadcasts progress,
// and archives terminal jobs.
type Worker struct {
	Jobs     *JobManager
	Hub      *Hub
	Orch     *orchestration.Orchestrator
	Cache    ResultCache
	Archive  *store.Store
	Tracker  *metrics.Tracker
	Progress *ProgressTracker
	Pool     int

	running atomic.Bool
}

// Running reports whether the worker loop is active; the readiness
// probe depends on it.
func (w *Worker) Running() bool { return w.running.Load() }

// Run blocks until ctx is cancelled, processing one job at a time per
// pool slot. In-flight jobs finish before the loop observes shutdown.
func (w *Worker) Run(ctx context.Context) {
	pool := w.Pool
	if pool < 1 {
		pool = 1
	}
	w.running.Store(true)
	defer w.running.Store(false)

	slog.Info("job worker started", "pool", pool)

	var wg sync.WaitGroup
	for i := 0; i < pool; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				id, ok := w.Jobs.Next(ctx, dequeueTimeout)
				if !ok {
					continue
				}
				w.safeProcess(ctx, id)
			}
		}()
	}
	wg.Wait()
	slog.Info("job worker drained")
}

// safeProcess recovers panics from scorer or orchestrator code so a
// bad job cannot kill the pool slot. The job is failed, the panic is
// logged, and the slot backs off one second to avoid spinning.
func (w *Worker) safeProcess(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker panic", "job", jobID, "panic", r)
			w.fail(ctx, jobID, fmt.Sprintf("internal error: %v", r))
			time.Sleep(time.Second)
		}
	}()
	w.process(ctx, jobID)
}

func (w *Worker) process(ctx context.Context, jobID string) {
	job := w.Jobs.Get(jobID)
	if job == nil {
		slog.Error("queued job not found", "job", jobID)
		return
	}

	now := time.Now()
	w.Jobs.Update(jobID, func(j *Job) {
		j.Status = ws.StatusProcessing
		j.StartedAt = &now
	})
	w.Hub.Broadcast(ctx, jobID, ws.Status{
		Type:    ws.TypeStatus,
		Status:  ws.StatusProcessing,
		Message: "Starting evaluation",
	})

	algorithms := expandAlgorithms(job.Algorithms)
	w.Progress.InitJob(jobID, len(algorithms))

	results := make(map[algo.Algorithm]json.RawMessage, len(algorithms))
	for _, alg := range algorithms {
		w.Progress.AlgorithmStarted(jobID, alg)
		w.Hub.Broadcast(ctx, jobID, ws.Algorithm{
			Type:      ws.TypeAlgorithm,
			Algorithm: string(alg),
			Status:    "running",
		})

		payload, err := w.evaluate(ctx, job, alg)
		w.Progress.AlgorithmCompleted(jobID, alg)
		if err != nil {
			slog.Error("algorithm failed", "job", jobID, "algorithm", alg, "err", err)
			w.fail(ctx, jobID, err.Error())
			return
		}

		results[alg] = payload
		w.Hub.Broadcast(ctx, jobID, ws.Algorithm{
			Type:      ws.TypeAlgorithm,
			Algorithm: string(alg),
			Status:    "completed",
			Result:    json.RawMessage(payload),
		})
	}

	done := time.Now()
	w.Jobs.Update(jobID, func(j *Job) {
		j.Status = ws.StatusCompleted
		j.CompletedAt = &done
		j.Results = results
	})
	w.Hub.Broadcast(ctx, jobID, ws.Status{
		Type:    ws.TypeStatus,
		Status:  ws.StatusCompleted,
		Message: "Evaluation completed successfully",
	})
	w.archive(jobID)
	w.Progress.Drop(jobID)
}

// evaluate runs one algorithm for a job, consulting the cache first
// for pipelines that include the new implementation.
func (w *Worker) evaluate(ctx context.Context, job *Job, alg algo.Algorithm) (json.RawMessage, error) {
	var key string
	if w.Cache != nil && job.Pipeline.UsesBeta() {
		refBytes, refErr := os.ReadFile(job.RefPath)
		hypBytes, hypErr := os.ReadFile(job.HypPath)
		if refErr == nil && hypErr == nil {
			key = cache.Key(refBytes, hypBytes, string(alg), string(job.Pipeline), config.Version)
			if cached, ok := w.Cache.GetJSON(ctx, key); ok {
				w.Tracker.CacheHit(string(alg), string(job.Pipeline))
				return cached, nil
			}
		}
	}

	var out *orchestration.Outcome
	err := w.Tracker.Timed(string(alg), string(job.Pipeline), func() error {
		var evalErr error
		out, evalErr = w.Orch.Evaluate(ctx, job.RefPath, job.HypPath, alg, job.Pipeline)
		return evalErr
	})
	if err != nil {
		return nil, err
	}
	if out.ParityPassed != nil && !*out.ParityPassed {
		w.Tracker.ParityFailure(string(alg))
	}

	payload, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if key != "" {
		w.Cache.SetJSON(ctx, key, json.RawMessage(payload))
	}
	return payload, nil
}

func (w *Worker) fail(ctx context.Context, jobID, errMsg string) {
	done := time.Now()
	w.Jobs.Update(jobID, func(j *Job) {
		j.Status = ws.StatusFailed
		j.CompletedAt = &done
		j.Error = errMsg
	})
	w.Hub.Broadcast(ctx, jobID, ws.Status{
		Type:   ws.TypeStatus,
		Status: ws.StatusFailed,
		Error:  errMsg,
	})
	w.archive(jobID)
	w.Progress.Drop(jobID)
}

// archive persists a terminal job so listings survive restarts.
func (w *Worker) archive(jobID string) {
	if w.Archive == nil {
		return
	}
	job := w.Jobs.Get(jobID)
	if job == nil || !job.Terminal() {
		return
	}

	rec := store.JobRecord{
		ID:          job.ID,
		Status:      job.Status,
		Pipeline:    string(job.Pipeline),
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
	}
	for _, a := range job.Algorithms {
		rec.Algorithms = append(rec.Algorithms, string(a))
	}
	if job.Results != nil {
		if data, err := json.Marshal(job.Results); err == nil {
			rec.Results = data
		}
		rec.ParityPassed = overallParity(job.Results)
	}
	if err := w.Archive.SaveJob(rec); err != nil {
		slog.Warn("job archive failed", "job", jobID, "err", err)
	}
}

// overallParity folds per-algorithm parity flags: nil when no dual
// outcome carried one, false if any failed.
func overallParity(results map[algo.Algorithm]json.RawMessage) *bool {
	var overall *bool
	for _, raw := range results {
		var probe struct {
			ParityPassed *bool `json:"parity_passed"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil || probe.ParityPassed == nil {
			continue
		}
		if overall == nil {
			v := true
			overall = &v
		}
		if !*probe.ParityPassed {
			*overall = false
		}
	}
	return overall
}

// expandAlgorithms resolves the "all" token to the five algorithms.
func expandAlgorithms(selected []algo.Algorithm) []algo.Algorithm {
	for _, a := range selected {
		if a == "all" {
			return algo.All()
		}
	}
	return selected
}
