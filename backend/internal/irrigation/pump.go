package irrigation

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// PumpState is the server's belief about the irrigation pump.
type PumpState string

const (
	PumpOn  PumpState = "ON"
	PumpOff PumpState = "OFF"
)

// ParsePumpState normalizes device-reported values such as "on" or " OFF".
func ParsePumpState(s string) (PumpState, error) {
	switch PumpState(strings.ToUpper(strings.TrimSpace(s))) {
	case PumpOn:
		return PumpOn, nil
	case PumpOff:
		return PumpOff, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPumpState, s)
	}
}

func (s PumpState) String() string {
	return string(s)
}

// PumpTracker holds the single process-wide pump state.
// Concurrent callers resolve last-writer-wins in arrival order.
type PumpTracker struct {
	mu    sync.Mutex
	state PumpState
	// changed is called with the new state while mu is held; keep it cheap.
	changed func(PumpState)
}

// NewPumpTracker returns a tracker starting in OFF.
func NewPumpTracker() *PumpTracker {
	return &PumpTracker{state: PumpOff}
}

// OnChange registers a callback invoked after every mutation.
func (t *PumpTracker) OnChange(fn func(PumpState)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.changed = fn
}

// Get returns the current state.
func (t *PumpTracker) Get() PumpState {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// Toggle flips ON and OFF and returns the new state.
func (t *PumpTracker) Toggle() PumpState {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == PumpOn {
		t.setLocked(PumpOff)
	} else {
		t.setLocked(PumpOn)
	}

	return t.state
}

// Set overwrites the state with a device-reported value.
func (t *PumpTracker) Set(s PumpState) error {
	if s != PumpOn && s != PumpOff {
		return fmt.Errorf("%w: %q", ErrInvalidPumpState, string(s))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.setLocked(s)

	return nil
}

// Fire records a timed pulse that the device runs on its own. The state becomes ON and is
// never switched back here, so until the next telemetry the server may still report ON
// after the device has already stopped the pump.
func (t *PumpTracker) Fire(_ time.Duration) PumpState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setLocked(PumpOn)

	return t.state
}

func (t *PumpTracker) setLocked(s PumpState) {
	t.state = s
	if t.changed != nil {
		t.changed(s)
	}
}
