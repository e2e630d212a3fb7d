package mqtt

import (
	"log/slog"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/pkg/mqtt"
	"irrigation-monitor/backend/pkg/utils"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// RegisterSensorReadingSubscribe registers the device telemetry subscription.
func (s *Handler) RegisterSensorReadingSubscribe(mb *mqtt.MQTTBuilder) {
	mb.MustRegisterSubscribe(s.sensorTopic, mqtt.SubscriptionSpec{
		OperationID: OperationSensorReading,
		Summary:     "Receive sensor readings",
		Description: "Readings published by the field device. Each valid message is stored with a server timestamp. pompa_status, when present, overwrites the tracked pump state. Invalid messages are logged and dropped.",
		Group:       TelemetryGroup,
		MessageType: irrigation.SensorPayload{},
		Handler:     s.handleSensorReading,
		QoS:         mqtt.QoSAtMostOnce,
		Examples: map[string]any{
			"canonical": irrigation.SensorPayload{
				SoilMoisture: utils.Ptr(50.0),
				Humidity:     utils.Ptr(60.0),
				Temperature:  utils.Ptr(28.0),
			},
			"firmware": map[string]any{
				"kelembapan_tanah": 41.0,
				"kelembapan_udara": 77.5,
				"suhu_udara":       29.1,
				"pompa_status":     "OFF",
			},
		},
	})
}

// handleSensorReading runs on the client's callback goroutine, so it only enqueues.
func (s *Handler) handleSensorReading(_ pahomqtt.Client, msg pahomqtt.Message) {
	if !s.svc.Irrigation.Enqueue(msg.Payload()) {
		s.l.Warn("sensor reading dropped", slog.String("topic", msg.Topic()), slog.Int("bytes", len(msg.Payload())))
	}
}
