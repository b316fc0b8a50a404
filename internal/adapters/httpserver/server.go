// Package httpserver exposes the download worker over HTTP. The external
// contract is deliberately small: POST /dl takes the download request and
// always answers with one {ok, error} JSON object — 200 on success, 500 on
// any failure, including timeouts and internal faults.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/handler"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// Server adapts HTTP requests into handler requests.
type Server struct {
	handler *handler.Handler
	config  *config.Config
	logger  observability.Logger
	metrics observability.Metrics
	server  *http.Server
}

// NewServer creates the HTTP adapter.
func NewServer(h *handler.Handler, cfg *config.Config, logger observability.Logger, metrics observability.Metrics) *Server {
	return &Server{
		handler: h,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Routes builds the request multiplexer. Exposed for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/dl", s.handleDownload)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start runs the server until it is shut down.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.config.Addr(),
		Handler: s.Routes(),
		// The write timeout must outlast the request deadline so timeout
		// outcomes still reach the caller.
		ReadTimeout:  time.Minute,
		WriteTimeout: s.config.Handler.Timeout + time.Minute,
	}

	s.logger.Info(context.Background(), "HTTP server listening", observability.Fields{
		"addr": s.config.Addr(),
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}

// handleDownload is the single worker endpoint.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	s.metrics.StartOperation("http_dl")
	defer s.metrics.EndOperation("http_dl")
	defer func() {
		s.metrics.RecordDuration("http_dl", time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.Handler.MaxRequestSize))
	r.Body.Close()
	if err != nil {
		s.metrics.RecordError("http_dl", "body_read")
		s.writeOutcome(w, domain.DownloadOutcome{
			OK:    false,
			Error: fmt.Sprintf("reading request body: %v", err),
		})
		return
	}

	req := handler.Request{
		ID:        uuid.New().String(),
		Source:    "http",
		Type:      "download",
		Payload:   body,
		Timestamp: time.Now().UTC(),
		Metadata: map[string]string{
			"http_remote_addr": r.RemoteAddr,
		},
	}

	resp, err := s.handler.Handle(r.Context(), req)

	outcome := domain.DownloadOutcome{OK: resp.Success}
	switch {
	case err != nil:
		outcome.OK = false
		outcome.Error = err.Error()
	case !resp.Success:
		outcome.Error = resp.ErrorMessage()
	}

	s.writeOutcome(w, outcome)
}

// writeOutcome sends the external {ok, error} JSON: 200 for success, 500
// for everything else.
func (s *Server) writeOutcome(w http.ResponseWriter, outcome domain.DownloadOutcome) {
	w.Header().Set("Content-Type", "application/json")
	if outcome.OK {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusInternalServerError)
	}
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		s.logger.Error(context.Background(), "Failed to encode response", err, nil)
	}
}

// handleHealth reports worker and cache backend health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.handler.Health(r.Context()); err != nil {
		s.metrics.RecordError("health", "unhealthy")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
