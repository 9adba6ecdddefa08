package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"raid-reserve/internal/models"
)

// Event types published to the application event topic.
const (
	EventApplicationCreated   = "application.created"
	EventApplicationConfirmed = "application.confirmed"
	EventApplicationDeleted   = "application.deleted"
)

// ApplicationEvent is the wire envelope for one lifecycle event.
type ApplicationEvent struct {
	Type        string             `json:"type"`
	Application models.Application `json:"application"`
}

// Producer streams application lifecycle events to a single topic.
type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) publish(eventType string, app models.Application) error {
	msgBytes, err := json.Marshal(ApplicationEvent{Type: eventType, Application: app})
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s:%s", app.RaidKey, app.DateLocal)
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishApplicationCreated(app models.Application) error {
	return p.publish(EventApplicationCreated, app)
}

func (p *Producer) PublishApplicationConfirmed(app models.Application) error {
	return p.publish(EventApplicationConfirmed, app)
}

func (p *Producer) PublishApplicationDeleted(app models.Application) error {
	return p.publish(EventApplicationDeleted, app)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher satisfies the publisher contract when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishApplicationCreated(models.Application) error   { return nil }
func (NoopPublisher) PublishApplicationConfirmed(models.Application) error { return nil }
func (NoopPublisher) PublishApplicationDeleted(models.Application) error   { return nil }
