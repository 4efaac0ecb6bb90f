// Package events publishes search analytics events to Kafka so downstream
// consumers (dashboards, billing, model retraining) can track how the
// recommender is used.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/journal-recommender-service/internal/config"
)

// SearchCompletedEvent is emitted once per recommendation request after the
// pipeline finishes, whether or not any journals were returned.
type SearchCompletedEvent struct {
	SearchID          string    `json:"search_id"`
	UserID            string    `json:"user_id,omitempty"`
	Title             string    `json:"title"`
	PrimaryDiscipline string    `json:"primary_discipline,omitempty"`
	ResultCount       int       `json:"result_count"`
	Confidence        float64   `json:"confidence"`
	LLMUsed           bool      `json:"llm_used"`
	Broadened         bool      `json:"broadened"`
	DurationMS        int64     `json:"duration_ms"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// Publisher emits search analytics events.
type Publisher interface {
	// PublishSearchCompleted sends one event. A zero OccurredAt is filled in.
	PublishSearchCompleted(ctx context.Context, event SearchCompletedEvent) error

	// Close flushes pending messages and releases resources.
	Close() error
}

// KafkaPublisher is a Publisher backed by a kafka-go async writer.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher for the configured brokers and topic.
func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// PublishSearchCompleted sends one event to the configured topic.
// Messages are keyed by search ID so events for one search preserve order.
func (p *KafkaPublisher) PublishSearchCompleted(ctx context.Context, event SearchCompletedEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal search event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SearchID),
		Value: value,
	})
	if err != nil {
		p.logger.Error().Err(err).
			Str("search_id", event.SearchID).
			Msg("failed to publish search event")
		return fmt.Errorf("publish search event: %w", err)
	}

	p.logger.Debug().
		Str("search_id", event.SearchID).
		Int("result_count", event.ResultCount).
		Msg("published search event")

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info().Msg("closing event publisher")
	return p.writer.Close()
}

// NoopPublisher discards events. Used when Kafka publishing is disabled.
type NoopPublisher struct{}

// PublishSearchCompleted discards the event.
func (NoopPublisher) PublishSearchCompleted(context.Context, SearchCompletedEvent) error {
	return nil
}

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }

// NewPublisher returns a Kafka-backed publisher when enabled, otherwise a
// no-op publisher so callers never need to nil-check.
func NewPublisher(cfg config.KafkaConfig, logger zerolog.Logger) Publisher {
	if !cfg.Enabled {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(cfg, logger)
}
