package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher defines the interface for publishing lifecycle events
type EventPublisher interface {
	PublishLearningEvent(ctx context.Context, event *LearningEvent) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Watermill with Kafka
type KafkaEventPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topicName string
}

// PublisherConfig holds configuration for the event publisher
type PublisherConfig struct {
	KafkaBrokers []string
	TopicName    string
	Logger       *slog.Logger
}

// NewKafkaEventPublisher creates a new Kafka-based event publisher using Watermill
func NewKafkaEventPublisher(config PublisherConfig) (*KafkaEventPublisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisherConfig := kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topicName: config.TopicName,
	}, nil
}

// PublishLearningEvent publishes a lifecycle event to Kafka
func (p *KafkaEventPublisher) PublishLearningEvent(ctx context.Context, event *LearningEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal learning event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		p.logger.Error("Failed to publish learning event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish learning event: %w", err)
	}

	p.logger.Info("Published learning event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topicName)

	return nil
}

// Close closes the publisher and releases resources
func (p *KafkaEventPublisher) Close() error {
	return p.publisher.Close()
}

// NopEventPublisher discards events; used when event publishing is disabled
type NopEventPublisher struct{}

func NewNopEventPublisher() *NopEventPublisher {
	return &NopEventPublisher{}
}

func (n *NopEventPublisher) PublishLearningEvent(ctx context.Context, event *LearningEvent) error {
	return nil
}

func (n *NopEventPublisher) Close() error {
	return nil
}

// MockEventPublisher is a mock implementation for testing
type MockEventPublisher struct {
	Events []LearningEvent
	Logger *slog.Logger
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{
		Events: make([]LearningEvent, 0),
		Logger: logger,
	}
}

// PublishLearningEvent stores the event in memory (for testing)
func (m *MockEventPublisher) PublishLearningEvent(ctx context.Context, event *LearningEvent) error {
	m.Events = append(m.Events, *event)
	if m.Logger != nil {
		m.Logger.Info("Mock: Published learning event",
			"event_id", event.ID,
			"event_type", event.Type)
	}
	return nil
}

// Close is a no-op for the mock publisher
func (m *MockEventPublisher) Close() error {
	return nil
}

// EventsOfType returns the published events matching the given type (for testing)
func (m *MockEventPublisher) EventsOfType(eventType EventType) []LearningEvent {
	var out []LearningEvent
	for _, e := range m.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ClearEvents clears all published events (for testing)
func (m *MockEventPublisher) ClearEvents() {
	m.Events = make([]LearningEvent, 0)
}
