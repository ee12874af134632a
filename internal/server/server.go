package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/config"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/metrics"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/store"
)

// ResultCache is the slice of the cache the server depends on.
// *cache.Cache satisfies it; tests substitute an in-memory fake.
type ResultCache interface {
	GetJSON(ctx context.Context, key string) (json.RawMessage, bool)
	SetJSON(ctx context.Context, key string, value any)
	Ping(ctx context.Context) bool
}

// Server wires the HTTP surface to the job core. Collaborators are
// constructed at process start and injected; there is no process-wide
// mutable state.
type Server struct {
	cfg      config.Config
	Jobs     *JobManager
	Hub      *Hub
	Worker   *Worker
	Cache    ResultCache
	Archive  *store.Store
	Progress *ProgressTracker
	Window   *SlidingWindow
	Upgrades *UpgradeLimiter
	Prom     *metrics.Prom
	mux      *http.ServeMux
}

// NewServer assembles the server and its worker around the given
// collaborators.
func NewServer(cfg config.Config, orch *orchestration.Orchestrator, c ResultCache, archive *store.Store, prom *metrics.Prom) *Server {
	var rec metrics.Recorder = metrics.Noop{}
	if prom != nil {
		rec = prom
	}

	s := &Server{
		cfg:      cfg,
		Jobs:     NewJobManager(1024),
		Hub:      NewHub(),
		Cache:    c,
		Archive:  archive,
		Progress: NewProgressTracker(),
		Window:   NewSlidingWindow(cfg.RequestsPerMin),
		Upgrades: NewUpgradeLimiter(cfg.RequestsPerMin, func(string) {
			rec.CounterInc(metrics.UpgradesRejected)
		}),
		Prom: prom,
		mux:  http.NewServeMux(),
	}
	s.Worker = &Worker{
		Jobs:     s.Jobs,
		Hub:      s.Hub,
		Orch:     orch,
		Cache:    c,
		Archive:  archive,
		Tracker:  metrics.NewTracker(rec),
		Progress: s.Progress,
		Pool:     cfg.MaxWorkers,
	}

	s.mux.HandleFunc("POST /api/v1/evaluate", s.handleSubmit)
	s.mux.HandleFunc("GET /api/v1/evaluate/{job_id}", s.handleGetJob)
	s.mux.HandleFunc("GET /api/v1/evaluate", s.handleListJobs)
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/ready", s.handleReady)
	s.mux.HandleFunc("GET /ws/{job_id}", s.handleWS)
	if prom != nil {
		s.mux.Handle("GET /metrics", prom.Handler())
	}

	return s
}

// RunWorker starts the worker loop; it returns when ctx is cancelled
// and the pool has drained.
func (s *Server) RunWorker(ctx context.Context) {
	s.Worker.Run(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Tag the request for the error envelope.
	ctx := context.WithValue(r.Context(), requestIDKey{}, uuid.New().String())
	r = r.WithContext(ctx)

	ip := clientIP(r)

	// WebSocket upgrades get the refilling token-bucket limiter.
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		if !s.Upgrades.Allow(ip) {
			writeError(w, r, apiErr(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded"))
			return
		}
		s.mux.ServeHTTP(w, r)
		return
	}

	// API requests get the per-client sliding window.
	if strings.HasPrefix(r.URL.Path, "/api/") {
		if !s.Window.Allow(ip) {
			writeError(w, r, apiErr(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded"))
			return
		}
	}

	s.mux.ServeHTTP(w, r)
}
