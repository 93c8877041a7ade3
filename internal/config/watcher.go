package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

// Watcher monitors a config file and invokes a callback when it changes.
// Hosts typically reload the configuration and restart the engine from the
// callback; the engine itself reads configuration only once at startup.
type Watcher struct {
	path     string
	onChange func()
	logger   ports.Logger

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a watcher for path. onChange runs debounced, at most
// once per burst of file events.
func NewWatcher(path string, onChange func(), logger ports.Logger) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
	}
}

// Run watches the config file until the context is cancelled.
// Editors replace files on save, so the parent directory is watched and
// events are filtered by name.
func (w *Watcher) Run(ctx context.Context) {
	if w.path == "" {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("config watcher: create failed", ports.Err(err))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		w.logger.Error("config watcher: watch failed",
			ports.String("dir", dir), ports.Err(err))
		return
	}

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceChange(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher: error", ports.Err(err))
		}
	}
}

func (w *Watcher) debounceChange(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(delay, w.onChange)
}
