package irrigation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commandTopic = "kebun/pompa"

func newDispatcher(mode irrigation.PumpMode, pub irrigation.CommandPublisher) (*irrigation.Dispatcher, *irrigation.PumpTracker, *metrics.Metrics) {
	pump := irrigation.NewPumpTracker()
	m := metrics.New()
	d := irrigation.NewDispatcher(discardLogger(), pump, pub, irrigation.DispatcherOptions{
		Mode:    mode,
		Topic:   commandTopic,
		Metrics: m,
	})

	return d, pump, m
}

func TestParsePumpMode(t *testing.T) {
	t.Parallel()

	m, err := irrigation.ParsePumpMode(" Toggle ")
	require.NoError(t, err)
	assert.Equal(t, irrigation.PumpModeToggle, m)

	_, err = irrigation.ParsePumpMode("auto")
	assert.Error(t, err)
}

func TestDispatcherDefaultsToPulse(t *testing.T) {
	t.Parallel()

	d := irrigation.NewDispatcher(discardLogger(), irrigation.NewPumpTracker(), &fakePublisher{}, irrigation.DispatcherOptions{})
	assert.Equal(t, irrigation.PumpModePulse, d.Mode())
}

func TestDispatcherToggle(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	d, pump, _ := newDispatcher(irrigation.PumpModeToggle, pub)
	ctx := context.Background()

	res, err := d.ManualIrrigate(ctx)
	require.NoError(t, err)
	assert.Equal(t, irrigation.PumpOn, res.State)
	assert.Equal(t, "Pump turned ON.", res.Message)

	res, err = d.ManualIrrigate(ctx)
	require.NoError(t, err)
	assert.Equal(t, irrigation.PumpOff, res.State)
	assert.Equal(t, "Pump turned OFF.", res.Message)
	assert.Equal(t, irrigation.PumpOff, pump.Get())

	assert.Equal(t, []publishedCommand{
		{Topic: commandTopic, Command: "ON"},
		{Topic: commandTopic, Command: "OFF"},
	}, pub.Sent())
}

func TestDispatcherToggleIsBestEffort(t *testing.T) {
	t.Parallel()

	d, pump, m := newDispatcher(irrigation.PumpModeToggle, &fakePublisher{err: errors.New("not connected")})

	res, err := d.ManualIrrigate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, irrigation.PumpOn, res.State)
	assert.Equal(t, irrigation.PumpOn, pump.Get())
	assert.Contains(t, scrape(t, m), `irrigation_pump_commands_total{mode="toggle",outcome="error"} 1`)
}

func TestDispatcherPulse(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	d, pump, _ := newDispatcher(irrigation.PumpModePulse, pub)

	res, err := d.ManualIrrigate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, irrigation.PumpOn, res.State)
	assert.Equal(t, "Watering plants (2 seconds)...", res.Message)
	assert.Equal(t, irrigation.PumpOn, pump.Get())
	assert.Equal(t, []publishedCommand{{Topic: commandTopic, Command: irrigation.CommandManual}}, pub.Sent())

	// A second pulse is idempotent for the tracked state.
	res, err = d.ManualIrrigate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, irrigation.PumpOn, res.State)
}

func TestDispatcherPulseMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pulse time.Duration
		want  string
	}{
		{2 * time.Second, "Watering plants (2 seconds)..."},
		{500 * time.Millisecond, "Watering plants (0.5 seconds)..."},
		{1500 * time.Millisecond, "Watering plants (1.5 seconds)..."},
	}

	for _, tt := range tests {
		t.Run(tt.pulse.String(), func(t *testing.T) {
			t.Parallel()

			d := irrigation.NewDispatcher(discardLogger(), irrigation.NewPumpTracker(), &fakePublisher{}, irrigation.DispatcherOptions{
				Topic:         commandTopic,
				PulseDuration: tt.pulse,
			})

			res, err := d.ManualIrrigate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestDispatcherPulseTransportFailure(t *testing.T) {
	t.Parallel()

	brokerDown := errors.New("broker unreachable")
	d, pump, m := newDispatcher(irrigation.PumpModePulse, &fakePublisher{err: brokerDown})

	_, err := d.ManualIrrigate(context.Background())
	require.ErrorIs(t, err, irrigation.ErrTransportFailure)
	require.ErrorIs(t, err, brokerDown)

	var tf *irrigation.TransportFailureError
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, commandTopic, tf.Topic)

	assert.Equal(t, irrigation.PumpOff, pump.Get(), "state must not change when the command never left")
	assert.Contains(t, scrape(t, m), `irrigation_pump_commands_total{mode="pulse",outcome="error"} 1`)
}
