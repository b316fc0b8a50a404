package observability

import "context"

// NewNopProvider returns a Provider whose loggers and metrics discard
// everything. Intended for tests.
func NewNopProvider() Provider {
	return nopProvider{}
}

type nopProvider struct{}

func (nopProvider) Logger(string) Logger   { return nopLogger{} }
func (nopProvider) Metrics(string) Metrics { return nopMetrics{} }

// NewNopLogger returns a Logger that discards everything. Intended for
// tests and wiring code that has no provider yet.
func NewNopLogger() Logger {
	return nopLogger{}
}

// NewNopMetrics returns a Metrics that records nothing.
func NewNopMetrics() Metrics {
	return nopMetrics{}
}

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, Fields)         {}
func (nopLogger) Warn(context.Context, string, Fields)         {}
func (nopLogger) Error(context.Context, string, error, Fields) {}
func (nopLogger) Debug(context.Context, string, Fields)        {}
func (n nopLogger) WithFields(Fields) Logger                   { return n }

type nopMetrics struct{}

func (nopMetrics) RecordSuccess(string)          {}
func (nopMetrics) RecordError(string, string)    {}
func (nopMetrics) RecordDuration(string, float64) {}
func (nopMetrics) RecordFileSize(string, int64)  {}
func (nopMetrics) StartOperation(string)         {}
func (nopMetrics) EndOperation(string)           {}
