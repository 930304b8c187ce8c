package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"golang.org/x/crypto/blake2b"

	"github.com/coffersTech/logreport/internal/engine"
	"github.com/coffersTech/logreport/internal/jobs"
)

// handleGenerate runs the pipeline synchronously.
// GET /report_generator/generate?serviceName=&logsPath=[&q=][&format=json]
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logsPath := q.Get("logsPath")
	if logsPath == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "logsPath is required")
		return
	}

	reports, err := s.gen.GenerateFiltered(r.Context(), q.Get("serviceName"), logsPath, q.Get("q"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	var payload any = reportTexts(reports)
	if q.Get("format") == "json" {
		payload = reports
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	etag := reportETag(body)
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

func reportETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// handleHistogram returns per-service record counts over time.
// GET /api/histogram?serviceName=&logsPath=[&q=][&interval=1h]
// interval is a Go duration or a number of seconds and defaults to one minute.
func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logsPath := q.Get("logsPath")
	if logsPath == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "logsPath is required")
		return
	}

	interval := time.Minute
	if raw := q.Get("interval"); raw != "" {
		d, err := parseInterval(raw)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "interval must be a positive duration or number of seconds")
			return
		}
		interval = d
	}

	hists, err := s.gen.Histogram(r.Context(), q.Get("serviceName"), logsPath, q.Get("q"), interval)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hists)
}

func parseInterval(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

type submitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

// handleSubmit queues a report job.
// POST /api/reports {"service_name": "...", "logs_path": "...", "query": "..."}
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}

	p := s.parser.Get()
	defer s.parser.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON: "+err.Error())
		return
	}
	if v.Type() != fastjson.TypeObject {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be a JSON object")
		return
	}

	req := jobs.Request{
		Service:  string(v.GetStringBytes("service_name")),
		LogsPath: string(v.GetStringBytes("logs_path")),
		Query:    string(v.GetStringBytes("query")),
	}
	if req.LogsPath == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "logs_path is required")
		return
	}

	job, err := s.jobs.Submit(req)
	if err != nil {
		if errors.Is(err, jobs.ErrStoreFull) {
			w.Header().Set("Retry-After", "1")
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}

	w.Header().Set("Location", "/api/reports/"+job.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{
		JobID:     job.ID,
		StatusURL: "/api/reports/" + job.ID,
	})
}

type jobStatus struct {
	JobID       string     `json:"job_id"`
	State       jobs.State `json:"state"`
	ServiceName string     `json:"service_name"`
	LogsPath    string     `json:"logs_path"`
	Query       string     `json:"query,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Reports     []string   `json:"reports,omitempty"`
	Code        string     `json:"code,omitempty"`
	Message     string     `json:"message,omitempty"`
}

func newJobStatus(job jobs.Job) jobStatus {
	st := jobStatus{
		JobID:       job.ID,
		State:       job.State,
		ServiceName: job.Request.Service,
		LogsPath:    job.Request.LogsPath,
		Query:       job.Request.Query,
		SubmittedAt: job.SubmittedAt,
	}
	if job.Finished() {
		finished := job.FinishedAt
		st.FinishedAt = &finished
	}
	return st
}

// handleStatus reports a job's state; finished jobs carry their reports or
// the mapped failure.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "job not found")
		return
	}

	st := newJobStatus(job)
	switch job.State {
	case jobs.StateRunning:
		writeJSON(w, http.StatusAccepted, st)
	case jobs.StateSucceeded:
		st.Reports = reportTexts(job.Reports)
		writeJSON(w, http.StatusOK, st)
	default:
		status, body := statusFor(job.Err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("job failed", "request_id", RequestID(r.Context()), "job_id", job.ID, "error", job.Err)
		}
		st.Code, st.Message = body.Code, body.Message
		writeJSON(w, status, st)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list := s.jobs.List()
	out := make([]jobStatus, len(list))
	for i, job := range list {
		out[i] = newJobStatus(job)
		if job.State == jobs.StateFailed {
			out[i].Code = engine.KindOf(job.Err).String()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.Stats())
}
