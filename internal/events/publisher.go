// Package events publishes disposition events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"cockpit/internal/logger"
	"cockpit/pkg/models"
)

// DefaultTopic receives disposition events unless configured otherwise.
const DefaultTopic = "invoice.dispositions"

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes JSON messages to a topic.
type Publisher struct {
	writer Writer
	log    zerolog.Logger
}

// NewPublisher creates a Publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return NewPublisherWithWriter(w)
}

// NewPublisherWithWriter creates a Publisher over an existing writer.
func NewPublisherWithWriter(w Writer) *Publisher {
	return &Publisher{writer: w, log: logger.WithComponent("events")}
}

// Publish marshals value to JSON and writes it under key.
func (p *Publisher) Publish(ctx context.Context, key string, value interface{}) error {
	const op = "Publish"

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal value: %w", op, err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		return fmt.Errorf("%s: failed to write message: %w", op, err)
	}
	p.log.Debug().Str("key", key).Int("bytes", len(b)).Msg("Event published")
	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// DispositionEvent is the message published for each processed document.
type DispositionEvent struct {
	EventID       string    `json:"event_id"`
	RunID         string    `json:"run_id"`
	DocNumber     string    `json:"doc_number"`
	CompanyCode   string    `json:"company_code"`
	Kind          string    `json:"kind"`
	PostingNumber string    `json:"posting_number,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	SessionLost   bool      `json:"session_lost,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// NewDispositionEvent builds the event for a record.
func NewDispositionEvent(rec models.DispositionRecord) DispositionEvent {
	return DispositionEvent{
		EventID:       uuid.NewString(),
		RunID:         rec.RunID,
		DocNumber:     rec.DocNumber,
		CompanyCode:   rec.CompanyCode,
		Kind:          string(rec.Disposition.Kind),
		PostingNumber: rec.Disposition.PostingNumber,
		Reason:        rec.Disposition.Reason,
		SessionLost:   rec.Disposition.SessionLost,
		ProcessedAt:   rec.ProcessedAt,
	}
}

// PublishDisposition publishes the event for rec keyed by document number.
func (p *Publisher) PublishDisposition(ctx context.Context, rec models.DispositionRecord) error {
	return p.Publish(ctx, rec.DocNumber, NewDispositionEvent(rec))
}
