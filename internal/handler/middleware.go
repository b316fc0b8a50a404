package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/trimedia/tri-zvuk/internal/domain"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

// RecoveryMiddleware is the fault boundary: any panic anywhere below it is
// intercepted and converted into a structured failure response. The process
// never dies because of one request, and the caller always gets an answer.
func RecoveryMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (resp Response, err error) {
			logger := provider.Logger("handler")
			metrics := provider.Metrics("handler")

			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "Panic recovered", fmt.Errorf("%v", r), observability.Fields{
						"request_id": req.ID,
						"stack":      string(debug.Stack()),
					})
					metrics.RecordError("handler", "panic")

					resp = NewErrorResponse(
						req.ID,
						domain.CodeInternalFault,
						"internal fault while processing request",
						fmt.Sprintf("%v", r),
					)
					err = nil
				}
			}()

			return next(ctx, req)
		}
	}
}

// TimeoutMiddleware bounds one request with a wall-clock deadline. The
// worker runs in its own goroutine under a cancelled-on-expiry context; on
// expiry the supervisor answers with a timeout failure immediately. I/O
// built on the context stops soon after, but a write already inside the
// filesystem layer may still land in the background.
//
// recover only sees panics raised on its own goroutine, so the worker
// goroutine carries its own fault boundary; RecoveryMiddleware above this
// layer only covers panics outside the timeout scope.
func TimeoutMiddleware(timeout time.Duration, provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			logger := provider.Logger("handler")
			metrics := provider.Metrics("handler")

			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				resp Response
				err  error
			}
			resultChan := make(chan result, 1)

			go func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error(timeoutCtx, "Panic recovered", fmt.Errorf("%v", r), observability.Fields{
							"request_id": req.ID,
							"stack":      string(debug.Stack()),
						})
						metrics.RecordError("handler", "panic")

						resultChan <- result{NewErrorResponse(
							req.ID,
							domain.CodeInternalFault,
							"internal fault while processing request",
							fmt.Sprintf("%v", r),
						), nil}
					}
				}()

				resp, err := next(timeoutCtx, req)
				resultChan <- result{resp, err}
			}()

			select {
			case res := <-resultChan:
				return res.resp, res.err
			case <-timeoutCtx.Done():
				// Parent cancellation (client gone) is not a timeout.
				if timeoutCtx.Err() != context.DeadlineExceeded {
					return Response{}, timeoutCtx.Err()
				}
				return NewErrorResponse(
					req.ID,
					domain.CodeTimeout,
					"request timed out",
					fmt.Sprintf("exceeded deadline of %v", timeout),
				), nil
			}
		}
	}
}

// TracingMiddleware ensures every request carries a trace ID for
// correlation across the pipeline.
func TracingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			traceID := req.Metadata["trace_id"]
			if traceID == "" {
				traceID = uuid.New().String()
			}

			ctx = context.WithValue(ctx, "trace_id", traceID)
			if req.Metadata == nil {
				req.Metadata = make(map[string]string)
			}
			req.Metadata["trace_id"] = traceID

			resp, err := next(ctx, req)

			if resp.Metadata == nil {
				resp.Metadata = make(map[string]string)
			}
			resp.Metadata["trace_id"] = traceID
			return resp, err
		}
	}
}

// MetricsMiddleware records outcome counters and latency for every request.
func MetricsMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			metrics := provider.Metrics("handler")

			workerName, _ := ctx.Value("worker").(string)
			if workerName == "" {
				workerName = "unknown"
			}

			metrics.StartOperation(workerName)
			defer metrics.EndOperation(workerName)

			start := time.Now()
			resp, err := next(ctx, req)
			metrics.RecordDuration(workerName, time.Since(start).Seconds())

			switch {
			case err != nil:
				metrics.RecordError(workerName, "processing_error")
			case !resp.Success:
				errorType := "unknown_error"
				if resp.Error != nil {
					errorType = resp.Error.Code
				}
				metrics.RecordError(workerName, errorType)
			default:
				metrics.RecordSuccess(workerName)
			}

			return resp, err
		}
	}
}

// LoggingMiddleware logs the start and outcome of every request.
func LoggingMiddleware(provider observability.Provider) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			workerName, _ := ctx.Value("worker").(string)

			logger := provider.Logger("handler").WithFields(observability.Fields{
				"request_id": req.ID,
				"type":       req.Type,
				"source":     req.Source,
				"worker":     workerName,
			})

			logger.Info(ctx, "Processing request", observability.Fields{
				"payload_size": len(req.Payload),
			})

			start := time.Now()
			resp, err := next(ctx, req)
			duration := time.Since(start)

			switch {
			case err != nil:
				logger.Error(ctx, "Request failed", err, observability.Fields{
					"duration_ms": duration.Milliseconds(),
				})
			case !resp.Success:
				fields := observability.Fields{"duration_ms": duration.Milliseconds()}
				if resp.Error != nil {
					fields["error_code"] = resp.Error.Code
					fields["error_msg"] = resp.Error.Message
				}
				logger.Warn(ctx, "Request completed with failure", fields)
			default:
				logger.Info(ctx, "Request completed", observability.Fields{
					"duration_ms": duration.Milliseconds(),
				})
			}

			resp.Duration = duration
			return resp, err
		}
	}
}

// ValidationMiddleware rejects requests without a usable JSON payload and
// fills in identity defaults.
func ValidationMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			if req.ID == "" {
				req.ID = uuid.New().String()
			}
			if req.Timestamp.IsZero() {
				req.Timestamp = time.Now().UTC()
			}

			if len(req.Payload) == 0 {
				return NewErrorResponse(
					req.ID,
					domain.CodeValidation,
					"request payload is required",
					"empty payload",
				), nil
			}
			if !json.Valid(req.Payload) {
				return NewErrorResponse(
					req.ID,
					domain.CodeValidation,
					"invalid JSON payload",
					"payload must be valid JSON",
				), nil
			}

			if req.Metadata == nil {
				req.Metadata = make(map[string]string)
			}

			return next(ctx, req)
		}
	}
}
