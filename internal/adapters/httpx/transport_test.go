package httpx

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/adapters/log"
)

func newTestTransport(url string, opts Options) *Transport {
	opts.URL = url
	return NewTransport(&http.Client{Timeout: 5 * time.Second}, opts, log.NewNoopLogger())
}

func TestTransport_Post(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotHeader      string
		gotBody        string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotHeader = r.Header.Get("X-Correlation")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL, Options{
		HeaderName:  "X-Correlation",
		HeaderValue: "inst-1",
	})

	payload := `{"source":"test","messages":[]}`
	if err := tr.Post(context.Background(), []byte(payload), false); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotHeader != "inst-1" {
		t.Errorf("correlation header = %q, want inst-1", gotHeader)
	}
	if gotBody != payload {
		t.Errorf("body = %q, want %q", gotBody, payload)
	}
}

func TestTransport_PostNoCorrelationHeader(t *testing.T) {
	var headerPresent bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, headerPresent = r.Header["X-Correlation"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL, Options{HeaderName: "X-Correlation"})
	if err := tr.Post(context.Background(), []byte(`{}`), false); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if headerPresent {
		t.Error("correlation header sent without a value configured")
	}
}

func TestTransport_PostServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL, Options{})
	err := tr.Post(context.Background(), []byte(`{}`), false)
	if err == nil {
		t.Fatal("Post() succeeded on a 502 response")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "nope") {
		t.Errorf("error = %v, want status and body", err)
	}
}

func TestTransport_PostCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := tr.Post(ctx, []byte(`{}`), false); err == nil {
		t.Error("asynchronous Post() ignored a cancelled context")
	}
}

func TestTransport_SyncPostSurvivesCancelledContext(t *testing.T) {
	var delivered bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := newTestTransport(srv.URL, Options{SyncTimeout: 5 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The shutdown flush posts synchronously after the engine context is
	// already cancelled; it must still go out.
	if err := tr.Post(ctx, []byte(`{}`), true); err != nil {
		t.Fatalf("synchronous Post() error = %v", err)
	}
	if !delivered {
		t.Error("synchronous post never reached the server")
	}
}
