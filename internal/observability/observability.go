// Package observability provides structured logging and metrics collection
// for the download worker. Components receive Logger and Metrics instances
// from a Provider; they never construct their own.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/trimedia/tri-zvuk/internal/observability/logger"
	"github.com/trimedia/tri-zvuk/internal/observability/metrics"
)

// Fields holds structured logging fields as key-value pairs.
type Fields = logger.Fields

// Logger is the structured logging contract. All methods are context-aware
// so request and trace identifiers propagate into log entries.
type Logger interface {
	Info(ctx context.Context, msg string, fields Fields)
	Warn(ctx context.Context, msg string, fields Fields)
	Error(ctx context.Context, msg string, err error, fields Fields)
	Debug(ctx context.Context, msg string, fields Fields)
	WithFields(fields Fields) Logger
}

// Metrics is the metrics collection contract, backed by Prometheus.
type Metrics interface {
	RecordSuccess(operation string)
	RecordError(operation, errorType string)
	RecordDuration(operation string, seconds float64)
	RecordFileSize(fileType string, bytes int64)
	StartOperation(operation string)
	EndOperation(operation string)
}

// Config configures the provider.
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string
	LogOutput   io.Writer
}

// Provider hands out per-component Logger and Metrics instances.
type Provider interface {
	Logger(component string) Logger
	Metrics(component string) Metrics
}

// DefaultProvider is the production Provider. Instances are cached: asking
// twice for the same component returns the same value.
type DefaultProvider struct {
	config  Config
	mu      sync.Mutex
	loggers map[string]Logger
	metrics map[string]Metrics
}

// NewProvider creates a provider. LogOutput defaults to os.Stdout.
func NewProvider(config Config) *DefaultProvider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}
	return &DefaultProvider{
		config:  config,
		loggers: make(map[string]Logger),
		metrics: make(map[string]Metrics),
	}
}

// Logger returns the Logger for a component.
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.loggers[component]; ok {
		return l
	}

	l := adaptLogger{logger.New(
		fmt.Sprintf("%s.%s", p.config.ServiceName, component),
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		Fields{"component": component},
	)}
	p.loggers[component] = l
	return l
}

// Metrics returns the Metrics collector for a component.
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.metrics[component]; ok {
		return m
	}

	m := metrics.New(component)
	p.metrics[component] = m
	return m
}

// adaptLogger lifts *logger.Logger (whose WithFields returns the concrete
// type) into the Logger interface.
type adaptLogger struct {
	*logger.Logger
}

func (a adaptLogger) WithFields(fields Fields) Logger {
	return adaptLogger{a.Logger.WithFields(fields)}
}
