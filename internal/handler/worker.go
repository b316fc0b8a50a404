package handler

import "context"

// Worker is the business-logic contract behind the supervisor. Workers
// process requests without knowing which transport delivered them.
type Worker interface {
	// Name returns the worker name, used for logging and metrics.
	Name() string

	// Process performs the actual work. Errors that are part of normal
	// operation belong in the Response; a non-nil error means the worker
	// itself misbehaved.
	Process(ctx context.Context, request Request) (Response, error)

	// Health reports whether the worker's dependencies are usable.
	Health(ctx context.Context) error
}
