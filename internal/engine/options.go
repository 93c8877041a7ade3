package engine

import (
	"github.com/LaxarJS/laxar-log-activity/internal/metrics"
	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

// Option configures optional behavior of the Engine.
type Option func(*options)

// options holds the optional collaborators of an Engine instance.
type options struct {
	httpClient ports.HTTPClient
	transport  ports.Transport
	logger     ports.Logger
	clock      ports.Clock
	metrics    *metrics.Metrics
}

// WithHTTPClient sets a custom HTTP client for the default transport.
// Ignored when WithTransport is used.
func WithHTTPClient(client ports.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTransport replaces the HTTP transport entirely.
func WithTransport(transport ports.Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithLogger sets a custom logger for structured diagnostics.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger ports.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock injects a clock, letting tests drive timers virtually.
func WithClock(clock ports.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}
