package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/LuisSoma75/SomaEdu-sub000/internal/events"
)

// PublisherKind selects the EngineEvent sink.
type PublisherKind string

const (
	PublisherMock  PublisherKind = "mock"
	PublisherKafka PublisherKind = "kafka"
)

// EventConfig is read from EVENTS_ENABLED, EVENTS_PUBLISHER, KAFKA_BROKERS and
// ADAPTIVE_EVENTS_TOPIC.
type EventConfig struct {
	Enabled   bool
	Publisher PublisherKind
	Brokers   []string
	Topic     string
}

func loadEventConfig() (EventConfig, error) {
	cfg := EventConfig{
		Enabled:   getEnvBool("EVENTS_ENABLED", false),
		Publisher: PublisherKind(strings.ToLower(getEnv("EVENTS_PUBLISHER", string(PublisherMock)))),
		Brokers:   splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		Topic:     getEnv("ADAPTIVE_EVENTS_TOPIC", "adaptive-exam-events"),
	}
	switch cfg.Publisher {
	case PublisherMock, PublisherKafka:
	default:
		return EventConfig{}, fmt.Errorf("unknown EVENTS_PUBLISHER %q", cfg.Publisher)
	}
	if cfg.Enabled && cfg.Publisher == PublisherKafka && len(cfg.Brokers) == 0 {
		return EventConfig{}, fmt.Errorf("KAFKA_BROKERS is empty with kafka events enabled")
	}
	return cfg, nil
}

// CreateEventPublisher returns the Kafka publisher only when events are enabled and
// routed there. Anything else records events in memory.
func (c EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled || c.Publisher != PublisherKafka {
		logger.Info("Engine events kept in memory", "enabled", c.Enabled, "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}

	logger.Info("Publishing engine events to Kafka", "brokers", c.Brokers, "topic", c.Topic)
	publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: c.Brokers,
		TopicName:    c.Topic,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return publisher, nil
}
