package irrigation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"irrigation-monitor/backend/internal/metrics"
	"irrigation-monitor/backend/pkg/utils"
)

// PumpMode selects how a manual irrigation request is carried out. It is fixed per deployment.
type PumpMode string

const (
	// PumpModeToggle flips the tracked state and tells the device the new state.
	PumpModeToggle PumpMode = "toggle"
	// PumpModePulse asks the device to water for a fixed time.
	PumpModePulse PumpMode = "pulse"
)

// CommandManual is the token the device firmware treats as a timed watering request.
const CommandManual = "MANUAL"

// DefaultPulseDuration is how long the firmware runs the pump for CommandManual.
const DefaultPulseDuration = 2 * time.Second

// ParsePumpMode accepts "toggle" or "pulse" in any case.
func ParsePumpMode(s string) (PumpMode, error) {
	switch m := PumpMode(strings.ToLower(strings.TrimSpace(s))); m {
	case PumpModeToggle, PumpModePulse:
		return m, nil
	default:
		return "", fmt.Errorf("unknown pump mode %q: must be %q or %q", s, PumpModeToggle, PumpModePulse)
	}
}

// CommandPublisher hands a command to the device transport.
type CommandPublisher interface {
	PublishCommand(ctx context.Context, topic string, command string) error
}

// CommandResult is returned to the operator.
type CommandResult struct {
	Message string
	State   PumpState
}

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	Mode          PumpMode
	Topic         string
	PulseDuration time.Duration
	Metrics       *metrics.Metrics
}

// Dispatcher turns operator requests into device commands.
type Dispatcher struct {
	l     *slog.Logger
	pump  *PumpTracker
	pub   CommandPublisher
	mode  PumpMode
	topic string
	pulse time.Duration
	m     *metrics.Metrics
}

func NewDispatcher(l *slog.Logger, pump *PumpTracker, pub CommandPublisher, opts DispatcherOptions) *Dispatcher {
	if opts.Mode == "" {
		opts.Mode = PumpModePulse
	}

	if opts.PulseDuration <= 0 {
		opts.PulseDuration = DefaultPulseDuration
	}

	return &Dispatcher{
		l:     l.With(slog.String("component", "dispatcher"), slog.String("mode", string(opts.Mode))),
		pump:  pump,
		pub:   pub,
		mode:  opts.Mode,
		topic: opts.Topic,
		pulse: opts.PulseDuration,
		m:     opts.Metrics,
	}
}

// Mode returns the deployment's pump mode.
func (d *Dispatcher) Mode() PumpMode {
	return d.mode
}

// ManualIrrigate runs the operator's irrigation request in the configured mode.
func (d *Dispatcher) ManualIrrigate(ctx context.Context) (CommandResult, error) {
	if d.mode == PumpModeToggle {
		return d.toggle(ctx), nil
	}

	return d.fire(ctx)
}

// toggle always flips the state. Delivering the new state to the device is best effort.
func (d *Dispatcher) toggle(ctx context.Context) CommandResult {
	state := d.pump.Toggle()

	err := d.pub.PublishCommand(ctx, d.topic, state.String())
	if err != nil {
		d.l.Warn("failed to deliver pump state to device", slog.String("state", state.String()), utils.ErrAttr(err))
	}

	d.m.PumpCommand(string(d.mode), err == nil)
	d.l.Info("pump toggled", slog.String("state", state.String()))

	return CommandResult{Message: fmt.Sprintf("Pump turned %s.", state), State: state}
}

// fire only records ON once the broker accepted the command.
func (d *Dispatcher) fire(ctx context.Context) (CommandResult, error) {
	if err := d.pub.PublishCommand(ctx, d.topic, CommandManual); err != nil {
		d.m.PumpCommand(string(d.mode), false)

		return CommandResult{}, &TransportFailureError{Topic: d.topic, Err: err}
	}

	state := d.pump.Fire(d.pulse)
	d.m.PumpCommand(string(d.mode), true)
	d.l.Info("pump pulse requested", slog.Duration("duration", d.pulse))

	return CommandResult{
		Message: fmt.Sprintf("Watering plants (%s seconds)...", strconv.FormatFloat(d.pulse.Seconds(), 'f', -1, 64)),
		State:   state,
	}, nil
}
