// Package handler supervises one worker: every request passes through a
// middleware chain that guarantees exactly one structured response, no
// matter what happens inside — declared errors, deadline expiry, or panics.
package handler

import (
	"context"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// Middleware wraps a HandlerFunc to add a cross-cutting concern.
type Middleware func(next HandlerFunc) HandlerFunc

// HandlerFunc is the core processing signature middlewares wrap.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

// Handler runs a Worker behind a middleware chain.
type Handler struct {
	worker      Worker
	obs         observability.Provider
	middlewares []Middleware
	config      config.HandlerConfig
}

// NewHandler creates a bare handler with no middleware. Most callers should
// use NewFactory instead.
func NewHandler(worker Worker, provider observability.Provider, cfg config.HandlerConfig) *Handler {
	return &Handler{
		worker: worker,
		obs:    provider,
		config: cfg,
	}
}

// Use appends middleware. The first middleware added becomes the outermost
// layer.
func (h *Handler) Use(middleware Middleware) {
	h.middlewares = append(h.middlewares, middleware)
}

// Handle processes one request through the chain.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	chain := h.workerHandler
	for i := len(h.middlewares) - 1; i >= 0; i-- {
		chain = h.middlewares[i](chain)
	}

	ctx = context.WithValue(ctx, "request_id", req.ID)
	ctx = context.WithValue(ctx, "worker", h.worker.Name())

	return chain(ctx, req)
}

func (h *Handler) workerHandler(ctx context.Context, req Request) (Response, error) {
	return h.worker.Process(ctx, req)
}

// Health reports worker health.
func (h *Handler) Health(ctx context.Context) error {
	return h.worker.Health(ctx)
}

// Config returns the handler configuration.
func (h *Handler) Config() config.HandlerConfig {
	return h.config
}

// Factory assembles handlers with the default middleware stack.
type Factory struct {
	worker   Worker
	provider observability.Provider
	cfg      config.HandlerConfig
}

// NewFactory creates a handler factory.
func NewFactory(worker Worker, provider observability.Provider, cfg config.HandlerConfig) *Factory {
	return &Factory{worker: worker, provider: provider, cfg: cfg}
}

// Create builds a handler with the standard chain: recovery outermost, then
// deadline enforcement, tracing, metrics, logging, and payload validation.
// There is deliberately no retry layer; failed requests are the caller's to
// reschedule.
func (f *Factory) Create() *Handler {
	h := NewHandler(f.worker, f.provider, f.cfg)

	h.Use(RecoveryMiddleware(f.provider))
	if f.cfg.Timeout > 0 {
		h.Use(TimeoutMiddleware(f.cfg.Timeout, f.provider))
	}
	if f.cfg.EnableTracing {
		h.Use(TracingMiddleware())
	}
	if f.cfg.EnableMetrics {
		h.Use(MetricsMiddleware(f.provider))
	}
	h.Use(LoggingMiddleware(f.provider))
	h.Use(ValidationMiddleware())

	return h
}
