package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/algo"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/orchestration"
	"github.com/Clarity-Digital-Twin/nedc-bench-sub000/internal/ws"
)

// algoAll is the submission token that expands to every algorithm.
const algoAll = algo.Algorithm("all")

type submitResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

// handleSubmit accepts a multipart evaluation request, validates the
// blobs, persists them to scratch files and enqueues the job.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(2 * MaxUploadSize); err != nil {
		writeError(w, r, apiErr(http.StatusBadRequest, CodeBadRequest, "invalid multipart form"))
		return
	}

	refBytes, refName, err := readUpload(r, "reference")
	if err != nil {
		writeError(w, r, err)
		return
	}
	hypBytes, hypName, err := readUpload(r, "hypothesis")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := ValidateCSVBI(refBytes, refName); err != nil {
		writeError(w, r, err)
		return
	}
	if err := ValidateCSVBI(hypBytes, hypName); err != nil {
		writeError(w, r, err)
		return
	}

	algorithms, err := parseAlgorithms(r.Form["algorithms"])
	if err != nil {
		writeError(w, r, apiErr(http.StatusBadRequest, CodeBadRequest, err.Error()))
		return
	}

	pipelineStr := r.FormValue("pipeline")
	if pipelineStr == "" {
		pipelineStr = string(orchestration.PipelineDual)
	}
	pipeline, err := orchestration.ParsePipeline(pipelineStr)
	if err != nil {
		writeError(w, r, apiErr(http.StatusBadRequest, CodeBadRequest, err.Error()))
		return
	}

	jobID := uuid.New().String()
	refPath := filepath.Join(s.cfg.ScratchDir, jobID+"_ref"+csvBIExt)
	hypPath := filepath.Join(s.cfg.ScratchDir, jobID+"_hyp"+csvBIExt)
	if err := os.WriteFile(refPath, refBytes, 0o644); err != nil {
		writeError(w, r, fmt.Errorf("persist reference blob: %w", err))
		return
	}
	if err := os.WriteFile(hypPath, hypBytes, 0o644); err != nil {
		os.Remove(refPath)
		writeError(w, r, fmt.Errorf("persist hypothesis blob: %w", err))
		return
	}

	job := &Job{
		ID:         jobID,
		RefPath:    refPath,
		HypPath:    hypPath,
		Algorithms: algorithms,
		Pipeline:   pipeline,
		Status:     ws.StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Jobs.Add(job); err != nil {
		// The job never entered the queue, so nothing else will ever
		// reference these blobs.
		os.Remove(refPath)
		os.Remove(hypPath)
		writeError(w, r, apiErr(http.StatusServiceUnavailable, CodeInternal, err.Error()))
		return
	}

	// Broadcast immediately so late subscribers can catch up from the
	// retained event even before the worker picks the job up.
	s.Hub.Broadcast(r.Context(), jobID, ws.Status{
		Type:      ws.TypeStatus,
		Status:    ws.StatusQueued,
		Message:   "Job queued",
		JobID:     jobID,
		CreatedAt: job.CreatedAt.Format(time.RFC3339Nano),
	})

	writeJSON(w, http.StatusOK, submitResponse{
		JobID:     jobID,
		Status:    ws.StatusQueued,
		CreatedAt: job.CreatedAt,
		Message:   "Evaluation job submitted successfully",
	})
}

func readUpload(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", apiErr(http.StatusBadRequest, CodeBadRequest,
			fmt.Sprintf("missing %s file", field))
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s upload: %w", field, err)
	}
	return data, header.Filename, nil
}

func parseAlgorithms(values []string) ([]algo.Algorithm, error) {
	if len(values) == 0 {
		return []algo.Algorithm{algoAll}, nil
	}
	out := make([]algo.Algorithm, 0, len(values))
	for _, v := range values {
		if v == string(algoAll) {
			out = append(out, algoAll)
			continue
		}
		alg, err := algo.ParseAlgorithm(v)
		if err != nil {
			return nil, err
		}
		out = append(out, alg)
	}
	return out, nil
}

// jobResponse is the job record on the wire. For single-algorithm
// jobs the outcome fields are lifted to the top level.
type jobResponse struct {
	JobID        string                             `json:"job_id"`
	Status       string                             `json:"status"`
	Pipeline     orchestration.Pipeline             `json:"pipeline"`
	CreatedAt    time.Time                          `json:"created_at"`
	CompletedAt  *time.Time                         `json:"completed_at,omitempty"`
	Error        string                             `json:"error,omitempty"`
	Results      map[algo.Algorithm]json.RawMessage `json:"results,omitempty"`
	AlphaResult  json.RawMessage                    `json:"alpha_result,omitempty"`
	BetaResult   json.RawMessage                    `json:"beta_result,omitempty"`
	ParityPassed *bool                              `json:"parity_passed,omitempty"`
	ParityReport json.RawMessage                    `json:"parity_report,omitempty"`
	AlphaTime    float64                            `json:"alpha_time,omitempty"`
	BetaTime     float64                            `json:"beta_time,omitempty"`
	Speedup      float64                            `json:"speedup,omitempty"`
	Progress     *Progress                          `json:"progress,omitempty"`
}

func jobToResponse(job *Job) jobResponse {
	resp := jobResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Pipeline:    job.Pipeline,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Error:       job.Error,
	}
	if len(job.Results) == 1 {
		for _, raw := range job.Results {
			var lifted struct {
				AlphaResult  json.RawMessage `json:"alpha_result"`
				BetaResult   json.RawMessage `json:"beta_result"`
				ParityPassed *bool           `json:"parity_passed"`
				ParityReport json.RawMessage `json:"parity_report"`
				AlphaTime    float64         `json:"alpha_time"`
				BetaTime     float64         `json:"beta_time"`
				Speedup      float64         `json:"speedup"`
			}
			if err := json.Unmarshal(raw, &lifted); err == nil {
				resp.AlphaResult = lifted.AlphaResult
				resp.BetaResult = lifted.BetaResult
				resp.ParityPassed = lifted.ParityPassed
				resp.ParityReport = lifted.ParityReport
				resp.AlphaTime = lifted.AlphaTime
				resp.BetaTime = lifted.BetaTime
				resp.Speedup = lifted.Speedup
			}
		}
	} else {
		resp.Results = job.Results
	}
	return resp
}

// handleGetJob serves one job record, falling back to the archive for
// jobs from previous runs.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	job := s.Jobs.Get(jobID)
	if job == nil {
		if resp, ok := s.archivedJob(jobID); ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}
		writeError(w, r, apiErr(http.StatusNotFound, CodeNotFound,
			fmt.Sprintf("job %s not found", jobID)))
		return
	}

	resp := jobToResponse(job)
	if job.Status == ws.StatusProcessing {
		p := s.Progress.Get(jobID)
		resp.Progress = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) archivedJob(jobID string) (jobResponse, bool) {
	if s.Archive == nil {
		return jobResponse{}, false
	}
	rec, err := s.Archive.GetJob(jobID)
	if err != nil || rec == nil {
		return jobResponse{}, false
	}
	resp := jobResponse{
		JobID:       rec.ID,
		Status:      rec.Status,
		Pipeline:    orchestration.Pipeline(rec.Pipeline),
		CreatedAt:   rec.CreatedAt,
		CompletedAt: rec.CompletedAt,
		Error:       rec.Error,
	}
	if len(rec.Results) > 0 {
		var results map[algo.Algorithm]json.RawMessage
		if err := json.Unmarshal(rec.Results, &results); err == nil {
			resp.Results = results
		}
	}
	return resp, true
}

// handleListJobs serves a paginated job listing, merging live jobs
// with the archive.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	offset := queryInt(r, "offset", 0)
	status := r.URL.Query().Get("status")

	jobs := s.Jobs.List(limit+offset, 0, status)
	seen := make(map[string]bool, len(jobs))
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		seen[j.ID] = true
		out = append(out, jobToResponse(j))
	}

	if s.Archive != nil && len(out) < limit+offset {
		recs, err := s.Archive.ListJobs(limit+offset, 0, status)
		if err == nil {
			for _, rec := range recs {
				if seen[rec.ID] {
					continue
				}
				resp := jobResponse{
					JobID:       rec.ID,
					Status:      rec.Status,
					Pipeline:    orchestration.Pipeline(rec.Pipeline),
					CreatedAt:   rec.CreatedAt,
					CompletedAt: rec.CompletedAt,
					Error:       rec.Error,
				}
				out = append(out, resp)
			}
		}
	}

	if offset >= len(out) {
		out = nil
	} else {
		out = out[offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []jobResponse{}
	}
	writeJSON(w, http.StatusOK, out)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady returns 200 only when the worker is running and the
// cache is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	workerUp := s.Worker != nil && s.Worker.Running()
	cacheUp := s.Cache != nil && s.Cache.Ping(r.Context())
	if workerUp && cacheUp {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ready",
			"worker": workerUp,
			"cache":  cacheUp,
		})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"status": "not ready",
		"worker": workerUp,
		"cache":  cacheUp,
	})
}
