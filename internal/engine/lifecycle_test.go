package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/LaxarJS/laxar-log-activity/internal/adapters/log"
	"github.com/LaxarJS/laxar-log-activity/internal/domain"
)

func newTestLifecycle() *lifecycle {
	return newLifecycle(log.NewNoopLogger())
}

func TestLifecycle_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []State
	}{
		{"full cycle", []State{StateStarting, StateRunning, StateStopping, StateStopped}},
		{"stop during startup", []State{StateStarting, StateStopping, StateStopped}},
		{"crash while running", []State{StateStarting, StateRunning, StateCrashed}},
		{"restart after crash", []State{StateStarting, StateRunning, StateCrashed, StateStarting}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := newTestLifecycle()
			for _, next := range tt.path {
				if err := lc.transitionTo(next, "test"); err != nil {
					t.Fatalf("transition to %v failed: %v", next, err)
				}
			}
			if got := lc.State(); got != tt.path[len(tt.path)-1] {
				t.Errorf("final state = %v, want %v", got, tt.path[len(tt.path)-1])
			}
		})
	}
}

func TestLifecycle_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		setup   []State
		attempt State
		wantErr error
	}{
		{"stopped to running", nil, StateRunning, domain.ErrNotRunning},
		{"stopped to stopping", nil, StateStopping, domain.ErrNotRunning},
		{"running to starting", []State{StateStarting, StateRunning}, StateStarting, domain.ErrAlreadyRunning},
		{"running to stopped", []State{StateStarting, StateRunning}, StateStopped, domain.ErrAlreadyRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := newTestLifecycle()
			for _, next := range tt.setup {
				if err := lc.transitionTo(next, "setup"); err != nil {
					t.Fatalf("setup transition to %v failed: %v", next, err)
				}
			}
			if err := lc.transitionTo(tt.attempt, "test"); !errors.Is(err, tt.wantErr) {
				t.Errorf("transition error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLifecycle_Predicates(t *testing.T) {
	lc := newTestLifecycle()

	if !lc.canStart() || lc.canStop() || lc.accepting() {
		t.Error("stopped: want canStart only")
	}

	lc.transitionTo(StateStarting, "test")
	if lc.canStart() || !lc.canStop() || !lc.accepting() {
		t.Error("starting: want canStop and accepting")
	}

	lc.transitionTo(StateRunning, "test")
	if lc.canStart() || !lc.canStop() || !lc.accepting() {
		t.Error("running: want canStop and accepting")
	}

	lc.transitionTo(StateStopping, "test")
	if lc.canStart() || lc.canStop() || lc.accepting() {
		t.Error("stopping: want nothing allowed")
	}

	lc.transitionTo(StateStopped, "test")
	if !lc.canStart() {
		t.Error("stopped again: want canStart")
	}
}

func TestLifecycle_WaitWithTimeout(t *testing.T) {
	lc := newTestLifecycle()

	lc.addWorker()
	go func() {
		time.Sleep(10 * time.Millisecond)
		lc.workerDone()
	}()
	if err := lc.waitWithTimeout(time.Second); err != nil {
		t.Errorf("waitWithTimeout() error = %v", err)
	}

	lc.addWorker()
	defer lc.workerDone()
	if err := lc.waitWithTimeout(10 * time.Millisecond); !errors.Is(err, domain.ErrShutdownTimeout) {
		t.Errorf("waitWithTimeout() error = %v, want ErrShutdownTimeout", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
