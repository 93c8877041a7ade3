// Package config holds the engine configuration: defaults, validation, TOML
// file loading, environment overrides, and a change watcher for hosts that
// restart the engine on configuration edits.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LaxarJS/laxar-log-activity/internal/domain"
)

// Threshold holds the dual flush triggers.
type Threshold struct {
	// Messages is the buffered record count that forces an immediate flush.
	Messages int

	// Interval is the maximum buffering latency before a flush.
	Interval time.Duration
}

// Retry configures re-delivery of failed asynchronous submissions.
// The interval is flat; it does not back off between attempts.
type Retry struct {
	Enabled  bool
	Interval time.Duration

	// Retries is the initial delivery budget per failed payload.
	Retries int
}

// Config is the engine configuration, read once at startup.
// Use DefaultConfig() and override what you need; Validate() fills derived
// defaults.
type Config struct {
	// ResourceURL is the collector endpoint. Required; the engine does
	// not start without it.
	ResourceURL string

	// Source identifies the origin in every delivered payload.
	// Defaults to the hostname.
	Source string

	// InstanceID is the value of the INST tag injected into records.
	// Defaults to a generated UUID.
	InstanceID string

	// RequestPolicy selects batched or per-record requests.
	RequestPolicy domain.RequestPolicy

	Threshold Threshold
	Retry     Retry

	// HeaderName/HeaderValue optionally add a correlation header to
	// every request.
	HeaderName  string
	HeaderValue string

	// HTTPTimeout bounds individual transport calls.
	HTTPTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
// ResourceURL must still be set before the engine can start.
func DefaultConfig() Config {
	return Config{
		RequestPolicy: domain.PolicyBatch,
		Threshold: Threshold{
			Messages: 100,
			Interval: 120 * time.Second,
		},
		Retry: Retry{
			Enabled:  false,
			Interval: 60 * time.Second,
			Retries:  4,
		},
		HTTPTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration and sets derived defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ResourceURL) == "" {
		return domain.ErrMissingResourceURL
	}

	// Ensure no trailing slash
	c.ResourceURL = strings.TrimRight(c.ResourceURL, "/")

	if c.Source == "" {
		c.Source = hostname()
	}
	if c.InstanceID == "" {
		c.InstanceID = uuid.NewString()
	}
	if c.RequestPolicy == "" {
		c.RequestPolicy = domain.PolicyBatch
	}
	if !c.RequestPolicy.Valid() {
		return fmt.Errorf("%w: unknown request policy %q", domain.ErrInvalidConfig, c.RequestPolicy)
	}

	if c.Threshold.Messages <= 0 {
		return fmt.Errorf("%w: threshold messages must be positive", domain.ErrInvalidConfig)
	}
	if c.Threshold.Interval <= 0 {
		return fmt.Errorf("%w: threshold interval must be positive", domain.ErrInvalidConfig)
	}
	if c.Retry.Enabled {
		if c.Retry.Interval <= 0 {
			return fmt.Errorf("%w: retry interval must be positive", domain.ErrInvalidConfig)
		}
		if c.Retry.Retries <= 0 {
			return fmt.Errorf("%w: retry budget must be positive", domain.ErrInvalidConfig)
		}
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}

	return nil
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
