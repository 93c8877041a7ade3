// Package logactivity provides an embeddable engine that ships structured
// log records to a remote collector: it merges near-duplicates, batches on
// count and time thresholds, and retries failed deliveries on a bounded,
// flat-interval budget.
//
// Example usage:
//
//	cfg := logactivity.DefaultConfig()
//	cfg.ResourceURL = "https://collector.example.com/logs"
//	engine, err := logactivity.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
//	engine.Ingest(logactivity.Record{
//	    ID:    1,
//	    Time:  time.Now(),
//	    Level: "ERROR",
//	    File:  "main.go",
//	    Line:  42,
//	    Text:  "user [0:anonymize] failed to authenticate",
//	    Values: []any{"jane@example.com"},
//	})
package logactivity

import (
	"github.com/LaxarJS/laxar-log-activity/internal/config"
	"github.com/LaxarJS/laxar-log-activity/internal/domain"
	"github.com/LaxarJS/laxar-log-activity/internal/engine"
)

// Config holds the engine configuration.
// Use DefaultConfig() to get a Config with sensible defaults; ResourceURL
// must be set or the engine refuses to start.
type Config = config.Config

// Record is a single structured log record submitted for shipping.
type Record = domain.Record

// RequestPolicy controls whether one request carries the whole batch or
// each record travels in its own request.
type RequestPolicy = domain.RequestPolicy

// Request policies.
const (
	PolicyBatch      = domain.PolicyBatch
	PolicyPerMessage = domain.PolicyPerMessage
)

// Engine is the batching and delivery engine. Create one with New, then
// Start it; it is stopped with Stop, which performs a final synchronous
// flush of anything still buffered.
type Engine = engine.Engine

// Option configures optional collaborators of the engine.
type Option = engine.Option

// State is the engine lifecycle state returned by Status().
type State = engine.State

// Lifecycle states.
const (
	StateStopped  = engine.StateStopped
	StateStarting = engine.StateStarting
	StateRunning  = engine.StateRunning
	StateStopping = engine.StateStopping
	StateCrashed  = engine.StateCrashed
)

// Re-exported options.
var (
	WithHTTPClient = engine.WithHTTPClient
	WithTransport  = engine.WithTransport
	WithLogger     = engine.WithLogger
	WithClock      = engine.WithClock
	WithMetrics    = engine.WithMetrics
)

// Sentinel errors; check with errors.Is.
var (
	ErrAlreadyRunning     = domain.ErrAlreadyRunning
	ErrNotRunning         = domain.ErrNotRunning
	ErrShutdownTimeout    = domain.ErrShutdownTimeout
	ErrMissingResourceURL = domain.ErrMissingResourceURL
	ErrInvalidConfig      = domain.ErrInvalidConfig
)

// New creates an engine with the given configuration.
// The instance is created in StateStopped; call Start() to begin shipping.
func New(cfg Config, opts ...Option) (*Engine, error) {
	return engine.New(cfg, opts...)
}

// DefaultConfig returns a Config with sensible default values.
// At minimum, set ResourceURL before calling New.
func DefaultConfig() Config {
	return config.DefaultConfig()
}
