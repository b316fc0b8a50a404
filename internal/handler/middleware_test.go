package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("converts a panic into a structured failure", func(t *testing.T) {
		panicking := func(ctx context.Context, req Request) (Response, error) {
			panic("stream parser exploded")
		}

		wrapped := RecoveryMiddleware(observability.NewNopProvider())(panicking)

		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		require.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, domain.CodeInternalFault, resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "stream parser exploded")
		assert.Equal(t, "req-1", resp.ID)
	})

	t.Run("passes normal results through", func(t *testing.T) {
		ok := func(ctx context.Context, req Request) (Response, error) {
			return Response{ID: req.ID, Success: true}, nil
		}

		wrapped := RecoveryMiddleware(observability.NewNopProvider())(ok)

		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("answers with a timeout failure on expiry", func(t *testing.T) {
		slow := func(ctx context.Context, req Request) (Response, error) {
			select {
			case <-time.After(5 * time.Second):
				return Response{Success: true}, nil
			case <-ctx.Done():
				return Response{}, ctx.Err()
			}
		}

		wrapped := TimeoutMiddleware(50*time.Millisecond, observability.NewNopProvider())(slow)

		start := time.Now()
		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		elapsed := time.Since(start)

		require.NoError(t, err)
		require.False(t, resp.Success)
		assert.Equal(t, domain.CodeTimeout, resp.Error.Code)
		assert.Less(t, elapsed, time.Second)
	})

	t.Run("contains a panic raised in the worker goroutine", func(t *testing.T) {
		panicking := func(ctx context.Context, req Request) (Response, error) {
			panic("boom")
		}

		wrapped := TimeoutMiddleware(time.Second, observability.NewNopProvider())(panicking)

		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		require.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, domain.CodeInternalFault, resp.Error.Code)
		assert.Contains(t, resp.Error.Details, "boom")
	})

	t.Run("parent cancellation is not labelled a timeout", func(t *testing.T) {
		slow := func(ctx context.Context, req Request) (Response, error) {
			<-ctx.Done()
			return Response{}, ctx.Err()
		}

		wrapped := TimeoutMiddleware(time.Minute, observability.NewNopProvider())(slow)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		resp, err := wrapped(ctx, Request{ID: "req-1"})
		require.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, resp.Error)
	})

	t.Run("fast workers finish normally", func(t *testing.T) {
		fast := func(ctx context.Context, req Request) (Response, error) {
			return Response{ID: req.ID, Success: true}, nil
		}

		wrapped := TimeoutMiddleware(time.Second, observability.NewNopProvider())(fast)

		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
	})

	t.Run("worker sees a cancellable context", func(t *testing.T) {
		var sawDeadline bool
		checking := func(ctx context.Context, req Request) (Response, error) {
			_, sawDeadline = ctx.Deadline()
			return Response{Success: true}, nil
		}

		wrapped := TimeoutMiddleware(time.Second, observability.NewNopProvider())(checking)

		_, err := wrapped(context.Background(), Request{})
		require.NoError(t, err)
		assert.True(t, sawDeadline)
	})
}

func TestTracingMiddleware(t *testing.T) {
	t.Run("generates a trace id", func(t *testing.T) {
		var ctxTraceID string
		capture := func(ctx context.Context, req Request) (Response, error) {
			ctxTraceID, _ = ctx.Value("trace_id").(string)
			return Response{Success: true}, nil
		}

		wrapped := TracingMiddleware()(capture)

		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		assert.NotEmpty(t, ctxTraceID)
		assert.Equal(t, ctxTraceID, resp.Metadata["trace_id"])
	})

	t.Run("preserves an existing trace id", func(t *testing.T) {
		passthrough := func(ctx context.Context, req Request) (Response, error) {
			return Response{Success: true}, nil
		}

		wrapped := TracingMiddleware()(passthrough)

		resp, err := wrapped(context.Background(), Request{
			ID:       "req-1",
			Metadata: map[string]string{"trace_id": "trace-abc"},
		})
		require.NoError(t, err)
		assert.Equal(t, "trace-abc", resp.Metadata["trace_id"])
	})
}

func TestValidationMiddleware(t *testing.T) {
	passthrough := func(ctx context.Context, req Request) (Response, error) {
		return Response{ID: req.ID, Success: true}, nil
	}

	t.Run("rejects an empty payload", func(t *testing.T) {
		wrapped := ValidationMiddleware()(passthrough)

		resp, err := wrapped(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		require.False(t, resp.Success)
		assert.Equal(t, domain.CodeValidation, resp.Error.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		wrapped := ValidationMiddleware()(passthrough)

		resp, err := wrapped(context.Background(), Request{
			ID:      "req-1",
			Payload: json.RawMessage(`{"id": `),
		})
		require.NoError(t, err)
		require.False(t, resp.Success)
		assert.Equal(t, domain.CodeValidation, resp.Error.Code)
	})

	t.Run("fills identity defaults and passes through", func(t *testing.T) {
		var seen Request
		capture := func(ctx context.Context, req Request) (Response, error) {
			seen = req
			return Response{Success: true}, nil
		}

		wrapped := ValidationMiddleware()(capture)

		resp, err := wrapped(context.Background(), Request{Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, seen.ID)
		assert.False(t, seen.Timestamp.IsZero())
		assert.NotNil(t, seen.Metadata)
	})
}

// faultyWorker lets the chain tests drive every failure mode.
type faultyWorker struct {
	name    string
	process func(ctx context.Context, req Request) (Response, error)
	health  error
}

func (w *faultyWorker) Name() string { return w.name }

func (w *faultyWorker) Process(ctx context.Context, req Request) (Response, error) {
	return w.process(ctx, req)
}

func (w *faultyWorker) Health(ctx context.Context) error { return w.health }

func TestFactoryChain(t *testing.T) {
	cfg := config.HandlerConfig{
		Timeout:        time.Second,
		MaxRequestSize: 1 << 20,
		EnableMetrics:  false,
		EnableTracing:  true,
	}

	t.Run("exactly one response even when the worker panics", func(t *testing.T) {
		w := &faultyWorker{
			name: "panicker",
			process: func(ctx context.Context, req Request) (Response, error) {
				panic(errors.New("boom"))
			},
		}

		h := NewFactory(w, observability.NewNopProvider(), cfg).Create()

		resp, err := h.Handle(context.Background(), Request{
			ID:      "req-1",
			Payload: json.RawMessage(`{"id":"1"}`),
		})
		require.NoError(t, err)
		require.False(t, resp.Success)
		assert.Equal(t, domain.CodeInternalFault, resp.Error.Code)
	})

	t.Run("timeout beats a stuck worker", func(t *testing.T) {
		w := &faultyWorker{
			name: "sleeper",
			process: func(ctx context.Context, req Request) (Response, error) {
				<-ctx.Done()
				return Response{}, ctx.Err()
			},
		}

		shortCfg := cfg
		shortCfg.Timeout = 50 * time.Millisecond
		h := NewFactory(w, observability.NewNopProvider(), shortCfg).Create()

		resp, err := h.Handle(context.Background(), Request{
			ID:      "req-1",
			Payload: json.RawMessage(`{"id":"1"}`),
		})
		require.NoError(t, err)
		require.False(t, resp.Success)
		assert.Equal(t, domain.CodeTimeout, resp.Error.Code)
	})

	t.Run("validation short-circuits before the worker", func(t *testing.T) {
		called := false
		w := &faultyWorker{
			name: "untouched",
			process: func(ctx context.Context, req Request) (Response, error) {
				called = true
				return Response{Success: true}, nil
			},
		}

		h := NewFactory(w, observability.NewNopProvider(), cfg).Create()

		resp, err := h.Handle(context.Background(), Request{ID: "req-1"})
		require.NoError(t, err)
		require.False(t, resp.Success)
		assert.Equal(t, domain.CodeValidation, resp.Error.Code)
		assert.False(t, called)
	})

	t.Run("worker sees request and worker identity in context", func(t *testing.T) {
		var gotRequestID, gotWorker string
		w := &faultyWorker{
			name: "identity",
			process: func(ctx context.Context, req Request) (Response, error) {
				gotRequestID, _ = ctx.Value("request_id").(string)
				gotWorker, _ = ctx.Value("worker").(string)
				return Response{Success: true}, nil
			},
		}

		h := NewFactory(w, observability.NewNopProvider(), cfg).Create()

		_, err := h.Handle(context.Background(), Request{
			ID:      "req-42",
			Payload: json.RawMessage(`{}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "req-42", gotRequestID)
		assert.Equal(t, "identity", gotWorker)
	})
}
