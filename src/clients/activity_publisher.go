package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"sikep-admin-svc/src/internal/config"
	"sikep-admin-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// ActivityPublisher emits admin activity messages to RabbitMQ.
type ActivityPublisher struct {
	channel Channel
	cfg     *config.RabbitMQConfig
	now     func() time.Time
}

func NewActivityPublisher(cfg *config.Configuration, channel Channel) *ActivityPublisher {
	return &ActivityPublisher{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
		now:     time.Now,
	}
}

// PublishActivity publishes one activity message.
func (p *ActivityPublisher) PublishActivity(userID, sessionID, serviceName, action string, metadata map[string]string) error {
	message := models.ActivityMessage{
		UserID:      userID,
		SessionID:   sessionID,
		ServiceName: serviceName,
		Action:      action,
		Metadata:    metadata,
		Timestamp:   p.now(),
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal activity message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   message.Timestamp,
		},
	)

	if err != nil {
		logrus.WithError(err).Error("Failed to publish activity message")
		return fmt.Errorf("failed to publish activity message: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"session_id":  sessionID,
		"service":     serviceName,
		"action":      action,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.RoutingKey,
	}).Debug("Activity message published")

	return nil
}
