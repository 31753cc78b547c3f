package config

import (
	"fmt"
	"log/slog"

	"github.com/skilltrack/learning-service/internal/events"
)

// CreateEventPublisher builds the configured publisher. With events
// disabled, a no-op publisher is returned so callers never branch.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		return events.NewNopEventPublisher(), nil
	}

	switch c.Publisher {
	case "kafka":
		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.Brokers(),
			TopicName:    c.Topic,
			Logger:       logger,
		})
	case "mock":
		return events.NewMockEventPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown events publisher %q", c.Publisher)
	}
}
