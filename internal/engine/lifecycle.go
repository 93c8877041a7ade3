package engine

import (
	"sync"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/domain"
	"github.com/LaxarJS/laxar-log-activity/internal/ports"
)

// State represents the lifecycle state of the engine.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// ShutdownTimeout is the maximum time Stop() waits for the loop to finish
// its final synchronous flush.
const ShutdownTimeout = 30 * time.Second

// lifecycle is the state machine guarding Start/Stop/Ingest ordering.
type lifecycle struct {
	mu     sync.RWMutex
	state  State
	wg     sync.WaitGroup
	logger ports.Logger
}

func newLifecycle(logger ports.Logger) *lifecycle {
	return &lifecycle{state: StateStopped, logger: logger}
}

// State returns the current lifecycle state.
func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// transitionTo attempts to move to newState, validating the transition.
func (l *lifecycle) transitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	valid := false
	switch oldState {
	case StateStopped, StateCrashed:
		valid = newState == StateStarting
	case StateStarting:
		valid = newState == StateRunning || newState == StateCrashed || newState == StateStopping
	case StateRunning:
		valid = newState == StateStopping || newState == StateCrashed
	case StateStopping:
		valid = newState == StateStopped || newState == StateCrashed
	}
	if !valid {
		l.mu.Unlock()
		if oldState == StateStopped || oldState == StateCrashed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}

	l.state = newState
	l.mu.Unlock()

	l.logger.Info("state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}

// canStart returns true if Start() can be called.
func (l *lifecycle) canStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStopped || l.state == StateCrashed
}

// canStop returns true if Stop() can be called.
func (l *lifecycle) canStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning || l.state == StateStarting
}

// accepting returns true while ingestion is allowed.
func (l *lifecycle) accepting() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStarting || l.state == StateRunning
}

func (l *lifecycle) addWorker() {
	l.wg.Add(1)
}

func (l *lifecycle) workerDone() {
	l.wg.Done()
}

// waitWithTimeout waits for the loop goroutine to finish.
// Returns ErrShutdownTimeout if the timeout expires first.
func (l *lifecycle) waitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, forcing exit",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
