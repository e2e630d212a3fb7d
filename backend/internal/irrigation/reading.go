package irrigation

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Required measurement names, in validation order.
const (
	FieldSoilMoisture = "soil_moisture"
	FieldHumidity     = "humidity"
	FieldTemperature  = "temperature"
	FieldRainfall     = "rainfall"
	FieldPumpStatus   = "pompa_status"
)

// Reading is one stored sensor observation.
type Reading struct {
	ID           int64
	CapturedAt   time.Time
	SoilMoisture float64
	Humidity     float64
	Temperature  float64
	// Rainfall is nil when neither the device nor the weather lookup supplied it.
	Rainfall *float64
}

// SensorPayload is the message a device sends over MQTT or POST /data.
// Pointers distinguish an absent field from a zero value.
type SensorPayload struct {
	SoilMoisture *float64 `json:"soil_moisture"`
	Humidity     *float64 `json:"humidity"`
	Temperature  *float64 `json:"temperature"`
	Rainfall     *float64 `json:"rainfall,omitempty"`
	PumpStatus   *string  `json:"pompa_status,omitempty"`
}

var errNotObject = errors.New("payload is not a JSON object")

// firmwarePayload carries the key names used by the field firmware.
type firmwarePayload struct {
	SensorPayload

	SoilMoistureAlias *float64 `json:"kelembapan_tanah"`
	HumidityAlias     *float64 `json:"kelembapan_udara"`
	TemperatureAlias  *float64 `json:"suhu_udara"`
}

// ParsePayload decodes and validates a raw sensor message. It never touches the store.
// Unknown keys are ignored; firmware aliases are used only when the canonical key is absent.
func ParsePayload(data []byte) (SensorPayload, error) {
	// null decodes into an empty struct without error.
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return SensorPayload{}, &MalformedInputError{Err: errNotObject}
	}

	var raw firmwarePayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return SensorPayload{}, &MalformedInputError{Err: err}
	}

	p := raw.SensorPayload
	if p.SoilMoisture == nil {
		p.SoilMoisture = raw.SoilMoistureAlias
	}

	if p.Humidity == nil {
		p.Humidity = raw.HumidityAlias
	}

	if p.Temperature == nil {
		p.Temperature = raw.TemperatureAlias
	}

	if err := p.Validate(); err != nil {
		return SensorPayload{}, err
	}

	return p, nil
}

// Validate reports every required field that is absent.
func (p SensorPayload) Validate() error {
	var missing []string

	if p.SoilMoisture == nil {
		missing = append(missing, FieldSoilMoisture)
	}

	if p.Humidity == nil {
		missing = append(missing, FieldHumidity)
	}

	if p.Temperature == nil {
		missing = append(missing, FieldTemperature)
	}

	if len(missing) > 0 {
		return &IncompleteDataError{Field: missing[0], missing: missing}
	}

	return nil
}
