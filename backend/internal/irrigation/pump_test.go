package irrigation_test

import (
	"sync"
	"testing"

	"irrigation-monitor/backend/internal/irrigation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePumpState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    irrigation.PumpState
		wantErr bool
	}{
		{"ON", irrigation.PumpOn, false},
		{"off", irrigation.PumpOff, false},
		{" On ", irrigation.PumpOn, false},
		{"MANUAL", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := irrigation.ParsePumpState(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, irrigation.ErrInvalidPumpState)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPumpTracker(t *testing.T) {
	t.Parallel()

	t.Run("starts off", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, irrigation.PumpOff, irrigation.NewPumpTracker().Get())
	})

	t.Run("toggle twice restores state", func(t *testing.T) {
		t.Parallel()

		p := irrigation.NewPumpTracker()
		assert.Equal(t, irrigation.PumpOn, p.Toggle())
		assert.Equal(t, irrigation.PumpOff, p.Toggle())
	})

	t.Run("set rejects third values", func(t *testing.T) {
		t.Parallel()

		p := irrigation.NewPumpTracker()
		require.NoError(t, p.Set(irrigation.PumpOn))
		require.ErrorIs(t, p.Set("BROKEN"), irrigation.ErrInvalidPumpState)
		assert.Equal(t, irrigation.PumpOn, p.Get())
	})

	t.Run("fire reports on", func(t *testing.T) {
		t.Parallel()

		p := irrigation.NewPumpTracker()
		assert.Equal(t, irrigation.PumpOn, p.Fire(irrigation.DefaultPulseDuration))
		assert.Equal(t, irrigation.PumpOn, p.Get())
	})

	t.Run("on change callback", func(t *testing.T) {
		t.Parallel()

		var seen []irrigation.PumpState

		p := irrigation.NewPumpTracker()
		p.OnChange(func(s irrigation.PumpState) { seen = append(seen, s) })
		p.Toggle()
		_ = p.Set(irrigation.PumpOff)

		assert.Equal(t, []irrigation.PumpState{irrigation.PumpOn, irrigation.PumpOff}, seen)
	})
}

func TestPumpTrackerConcurrentToggles(t *testing.T) {
	t.Parallel()

	const n = 200

	p := irrigation.NewPumpTracker()

	var wg sync.WaitGroup
	for range n {
		wg.Go(func() { p.Toggle() })
	}

	wg.Wait()

	// An even number of serialized flips lands back on the start state.
	assert.Equal(t, irrigation.PumpOff, p.Get())
}
