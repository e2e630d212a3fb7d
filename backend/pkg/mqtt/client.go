package mqtt

import (
	"context"
	"fmt"

	"irrigation-monitor/backend/pkg/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MQTTClient struct {
	client  mqtt.Client
	builder *MQTTBuilder
}

// Publish sends a JSON encoded message to the specified topic using the publication spec identified by operationID.
// It does not validate the topic or payload.
func (c *MQTTClient) Publish(operationID string, actualTopic string, payload any) error {
	bytes, err := utils.ToJSON(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize payload: %w", err)
	}

	return c.PublishRaw(context.Background(), operationID, actualTopic, bytes)
}

// PublishRaw sends payload as-is. Plain-text device commands go through here.
// It returns when the broker acknowledges the publish or ctx is done.
func (c *MQTTClient) PublishRaw(ctx context.Context, operationID string, actualTopic string, payload []byte) error {
	pub, ok := c.builder.publications[operationID]
	if !ok {
		return fmt.Errorf("publication not found for operationID %s", operationID)
	}

	token := c.client.Publish(actualTopic, byte(pub.QoS), pub.Retained, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to topic %s: %w", actualTopic, ctx.Err())
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", actualTopic, err)
	}

	return nil
}

// IsConnected reports whether the client currently holds a broker connection.
func (c *MQTTClient) IsConnected() bool {
	return c.builder.Connected()
}
