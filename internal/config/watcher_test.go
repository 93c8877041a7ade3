package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/adapters/log"
)

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("source = \"a\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var fired atomic.Int32
	w := NewWatcher(path, func() { fired.Add(1) }, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watcher time to register before touching the file.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(path, []byte("source = \"b\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if fired.Load() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("watcher never fired after a config write")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var fired atomic.Int32
	w := NewWatcher(path, func() { fired.Add(1) }, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write sibling: %v", err)
	}

	time.Sleep(500 * time.Millisecond)
	if fired.Load() != 0 {
		t.Errorf("watcher fired %d times for an unrelated file", fired.Load())
	}
}

func TestWatcher_EmptyPathReturns(t *testing.T) {
	w := NewWatcher("", func() { t.Error("callback fired for empty path") }, log.NewNoopLogger())

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return for an empty path")
	}
}
