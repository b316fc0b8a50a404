// Package mocks provides testify mocks for the observability interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/trimedia/tri-zvuk/internal/observability"
)

// MockLogger is a mock implementation of observability.Logger.
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Info(ctx context.Context, msg string, fields observability.Fields) {
	m.Called(ctx, msg, fields)
}

func (m *MockLogger) Warn(ctx context.Context, msg string, fields observability.Fields) {
	m.Called(ctx, msg, fields)
}

func (m *MockLogger) Error(ctx context.Context, msg string, err error, fields observability.Fields) {
	m.Called(ctx, msg, err, fields)
}

func (m *MockLogger) Debug(ctx context.Context, msg string, fields observability.Fields) {
	m.Called(ctx, msg, fields)
}

func (m *MockLogger) WithFields(fields observability.Fields) observability.Logger {
	args := m.Called(fields)
	if l, ok := args.Get(0).(observability.Logger); ok {
		return l
	}
	return m
}

// MockMetrics is a mock implementation of observability.Metrics.
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordSuccess(operation string) {
	m.Called(operation)
}

func (m *MockMetrics) RecordError(operation, errorType string) {
	m.Called(operation, errorType)
}

func (m *MockMetrics) RecordDuration(operation string, seconds float64) {
	m.Called(operation, seconds)
}

func (m *MockMetrics) RecordFileSize(fileType string, bytes int64) {
	m.Called(fileType, bytes)
}

func (m *MockMetrics) StartOperation(operation string) {
	m.Called(operation)
}

func (m *MockMetrics) EndOperation(operation string) {
	m.Called(operation)
}
