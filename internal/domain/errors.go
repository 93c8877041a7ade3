package domain

import "errors"

// Domain errors returned by the public API; check with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running engine.
	ErrAlreadyRunning = errors.New("logactivity: already running")

	// ErrNotRunning is returned when Stop() or Ingest() is called on a
	// stopped engine.
	ErrNotRunning = errors.New("logactivity: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("logactivity: shutdown timeout")

	// ErrMissingResourceURL is returned when configuration lacks the
	// collector URL. The engine does not start without one.
	ErrMissingResourceURL = errors.New("logactivity: resource url is required")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("logactivity: invalid configuration")
)
