package ports

import (
	"context"
	"net/http"
)

// Transport posts serialized payloads to the remote collector.
// There is one interface with an explicit mode flag rather than two code
// paths; the caller decides the mode (asynchronous flush vs synchronous
// shutdown flush) at the call site.
type Transport interface {
	// Post delivers one payload. Synchronous posts must be issued even
	// when the surrounding context is being torn down; implementations
	// must not derive their deadline from ctx in that mode.
	Post(ctx context.Context, payload []byte, synchronous bool) error
}

// HTTPClient abstracts HTTP request execution for testing and custom
// transports. The standard *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}
