// Package httpx implements ports.Transport over HTTP POST.
package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

// Options configures a Transport.
type Options struct {
	// URL is the collector resource URL payloads are posted to.
	URL string

	// HeaderName and HeaderValue, when both set, are added to every
	// request for instance correlation.
	HeaderName  string
	HeaderValue string

	// SyncTimeout bounds synchronous posts, which run on a background
	// context so process teardown cannot cancel them.
	SyncTimeout time.Duration
}

// Transport posts JSON payloads to the collector.
type Transport struct {
	client ports.HTTPClient
	opts   Options
	logger ports.Logger
}

// NewTransport creates an HTTP transport.
func NewTransport(client ports.HTTPClient, opts Options, logger ports.Logger) *Transport {
	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = 5 * time.Second
	}
	return &Transport{
		client: client,
		opts:   opts,
		logger: logger,
	}
}

// Post delivers one payload to the collector.
// In synchronous mode the request deadline comes from a fresh background
// context: a shutdown flush must still be issued when the engine context has
// already been cancelled.
func (t *Transport) Post(ctx context.Context, payload []byte, synchronous bool) error {
	if synchronous {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), t.opts.SyncTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if t.opts.HeaderName != "" && t.opts.HeaderValue != "" {
		req.Header.Set(t.opts.HeaderName, t.opts.HeaderValue)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("collector returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
