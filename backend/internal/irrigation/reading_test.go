package irrigation_test

import (
	"errors"
	"testing"

	"irrigation-monitor/backend/internal/irrigation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantErr     error
		wantField   string
		wantMissing []string
		check       func(t *testing.T, p irrigation.SensorPayload)
	}{
		{
			name:  "canonical keys",
			input: `{"soil_moisture":42.5,"humidity":71,"temperature":29.3,"rainfall":1.5,"pompa_status":"ON"}`,
			check: func(t *testing.T, p irrigation.SensorPayload) {
				assert.Equal(t, 42.5, *p.SoilMoisture)
				assert.Equal(t, 71.0, *p.Humidity)
				assert.Equal(t, 29.3, *p.Temperature)
				assert.Equal(t, 1.5, *p.Rainfall)
				assert.Equal(t, "ON", *p.PumpStatus)
			},
		},
		{
			name:  "firmware keys",
			input: `{"kelembapan_tanah":40,"kelembapan_udara":65,"suhu_udara":30.1,"pompa_status":"OFF"}`,
			check: func(t *testing.T, p irrigation.SensorPayload) {
				assert.Equal(t, 40.0, *p.SoilMoisture)
				assert.Equal(t, 65.0, *p.Humidity)
				assert.Equal(t, 30.1, *p.Temperature)
				assert.Nil(t, p.Rainfall)
			},
		},
		{
			name:  "canonical key wins over alias",
			input: `{"soil_moisture":10,"kelembapan_tanah":90,"humidity":1,"temperature":2}`,
			check: func(t *testing.T, p irrigation.SensorPayload) {
				assert.Equal(t, 10.0, *p.SoilMoisture)
			},
		},
		{
			name:  "zero values are present values",
			input: `{"soil_moisture":0,"humidity":0,"temperature":0}`,
			check: func(t *testing.T, p irrigation.SensorPayload) {
				require.NotNil(t, p.SoilMoisture)
				assert.Zero(t, *p.SoilMoisture)
			},
		},
		{
			name:  "unknown keys ignored",
			input: `{"soil_moisture":1,"humidity":2,"temperature":3,"rssi":-70}`,
		},
		{
			name:    "not json",
			input:   `soil=42`,
			wantErr: irrigation.ErrMalformedInput,
		},
		{
			name:    "json array",
			input:   `[1,2,3]`,
			wantErr: irrigation.ErrMalformedInput,
		},
		{
			name:    "json null",
			input:   ` null `,
			wantErr: irrigation.ErrMalformedInput,
		},
		{
			name:    "json number",
			input:   `42`,
			wantErr: irrigation.ErrMalformedInput,
		},
		{
			name:    "wrong type",
			input:   `{"soil_moisture":"wet","humidity":2,"temperature":3}`,
			wantErr: irrigation.ErrMalformedInput,
		},
		{
			name:        "missing humidity",
			input:       `{"soil_moisture":42,"temperature":29}`,
			wantErr:     irrigation.ErrIncompleteData,
			wantField:   irrigation.FieldHumidity,
			wantMissing: []string{irrigation.FieldHumidity},
		},
		{
			name:        "empty object",
			input:       `{}`,
			wantErr:     irrigation.ErrIncompleteData,
			wantField:   irrigation.FieldSoilMoisture,
			wantMissing: []string{irrigation.FieldSoilMoisture, irrigation.FieldHumidity, irrigation.FieldTemperature},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := irrigation.ParsePayload([]byte(tt.input))

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				if tt.wantField != "" {
					var incomplete *irrigation.IncompleteDataError
					require.True(t, errors.As(err, &incomplete))
					assert.Equal(t, tt.wantField, incomplete.Field)
					assert.Equal(t, tt.wantMissing, incomplete.Missing())
				}

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}
