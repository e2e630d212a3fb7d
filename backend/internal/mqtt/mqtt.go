package mqtt

import (
	"log/slog"

	"irrigation-monitor/backend/internal/services"
)

const (
	TelemetryGroup = "Telemetry"
	PumpGroup      = "Pump"

	OperationSensorReading = "subscribeSensorReading"
	OperationPumpCommand   = "publishPumpCommand"
)

// Handler handles MQTT message processing.
type Handler struct {
	l            *slog.Logger
	svc          *services.Services
	sensorTopic  string
	commandTopic string
}

// NewMQTTHandler creates a new MQTT handler for the given sensor and command topics.
func NewMQTTHandler(l *slog.Logger, svc *services.Services, sensorTopic, commandTopic string) *Handler {
	return &Handler{
		l:            l.With(slog.String("component", "mqtt-handler")),
		svc:          svc,
		sensorTopic:  sensorTopic,
		commandTopic: commandTopic,
	}
}
