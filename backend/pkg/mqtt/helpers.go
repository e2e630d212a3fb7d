package mqtt

import (
	"errors"
	"fmt"
	"strings"
)

// validateTopicPattern accepts literal topics only: no wildcards, no empty levels.
func validateTopicPattern(topic string) error {
	if topic == "" {
		return errors.New("topic cannot be empty")
	}

	if strings.HasPrefix(topic, "/") || strings.HasSuffix(topic, "/") {
		return errors.New("leading or trailing slash is not allowed")
	}

	for level := range strings.SplitSeq(topic, "/") {
		if level == "" {
			return errors.New("empty levels are not allowed")
		}

		if strings.ContainsAny(level, "#+") {
			return fmt.Errorf("level %q contains a wildcard, topics must be literal", level)
		}

		if strings.ContainsAny(level, "{}") {
			return fmt.Errorf("level %q contains a placeholder, topics must be literal", level)
		}
	}

	return nil
}

// validateQoS validates a QoS level.
func validateQoS(qos QoS) error {
	if qos > QoSExactlyOnce {
		return errors.New("qos must be 0, 1, or 2")
	}

	return nil
}

// validatePublicationSpec validates a publication specification.
func (mb *MQTTBuilder) validatePublicationSpec(spec PublicationSpec) error {
	if spec.OperationID == "" {
		return errors.New("operationID is required")
	}

	if spec.Summary == "" {
		return errors.New("summary is required")
	}

	if spec.Description == "" {
		return errors.New("description is required")
	}

	if spec.Group == "" {
		return errors.New("group is required")
	}

	if spec.MessageType == nil {
		return errors.New("messageType is required")
	}

	if err := validateQoS(spec.QoS); err != nil {
		return err
	}

	return nil
}

// validateSubscriptionSpec validates a subscription specification.
func (mb *MQTTBuilder) validateSubscriptionSpec(spec SubscriptionSpec) error {
	if spec.OperationID == "" {
		return errors.New("operationID is required")
	}

	if spec.Summary == "" {
		return errors.New("summary is required")
	}

	if spec.Description == "" {
		return errors.New("description is required")
	}

	if spec.Group == "" {
		return errors.New("group is required")
	}

	if spec.MessageType == nil {
		return errors.New("messageType is required")
	}

	if spec.Handler == nil {
		return errors.New("handler is required")
	}

	if err := validateQoS(spec.QoS); err != nil {
		return err
	}

	return nil
}
