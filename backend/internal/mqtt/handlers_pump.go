package mqtt

import (
	"context"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/pkg/mqtt"
)

// RegisterPumpCommandPublish documents the command sent to the pump controller.
func (s *Handler) RegisterPumpCommandPublish(mb *mqtt.MQTTBuilder) {
	mb.MustRegisterPublish(s.commandTopic, mqtt.PublicationSpec{
		OperationID: OperationPumpCommand,
		Summary:     "Send a pump command",
		Description: "Plain-text command for the pump controller. MANUAL runs the pump for a fixed time (pulse mode). ON and OFF set the pump state (toggle mode).",
		Group:       PumpGroup,
		MessageType: new(string),
		QoS:         mqtt.QoSAtLeastOnce,
		Retained:    false,
		Examples: map[string]any{
			"pulse":  irrigation.CommandManual,
			"toggle": irrigation.PumpOn.String(),
		},
	})
}

// CommandPublisher delivers plain-text pump commands through the MQTT client.
type CommandPublisher struct {
	client *mqtt.MQTTClient
}

func NewCommandPublisher(client *mqtt.MQTTClient) *CommandPublisher {
	return &CommandPublisher{client: client}
}

func (p *CommandPublisher) PublishCommand(ctx context.Context, topic, command string) error {
	return p.client.PublishRaw(ctx, OperationPumpCommand, topic, []byte(command))
}
