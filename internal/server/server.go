// Package server exposes report generation over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/logreport/internal/engine"
	"github.com/coffersTech/logreport/internal/jobs"
)

// ReportGenerator produces reports for a service under a logs path.
type ReportGenerator interface {
	GenerateFiltered(ctx context.Context, serviceName, logsPath, query string) ([]engine.Report, error)
	Histogram(ctx context.Context, serviceName, logsPath, query string, interval time.Duration) ([]engine.ServiceHistogram, error)
}

// Options configures a Server.
type Options struct {
	ReadHeaderTimeout time.Duration
	// MaxBodyBytes bounds POST bodies; <= 0 means 1 MiB.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Server serves the synchronous report endpoint and the job API.
type Server struct {
	gen     ReportGenerator
	jobs    *jobs.Store
	logger  *slog.Logger
	parser  fastjson.ParserPool
	maxBody int64
	rht     time.Duration
	srv     *http.Server
}

// NewServer wires gen and store behind an HTTP handler.
func NewServer(gen ReportGenerator, store *jobs.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	rht := opts.ReadHeaderTimeout
	if rht <= 0 {
		rht = 10 * time.Second
	}
	return &Server{
		gen:     gen,
		jobs:    store,
		logger:  logger,
		maxBody: maxBody,
		rht:     rht,
	}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /report_generator/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/histogram", s.handleHistogram)

	mux.HandleFunc("POST /api/reports", s.handleSubmit)
	mux.HandleFunc("GET /api/reports", s.handleList)
	mux.HandleFunc("GET /api/reports/{id}", s.handleStatus)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	return s.withRequestLog(mux)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.rht,
	}
	s.logger.Info("http server listening", "addr", addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
