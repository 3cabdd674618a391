// Package publish streams ratings table rows to Kafka.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/Agrid-Dev/linerating/internal/ampacity"
	"github.com/Agrid-Dev/linerating/internal/batch"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per conductor row, keyed by codename.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, now: time.Now}
}

type rowMessage struct {
	Manufacturer string        `json:"manufacturer"`
	Codename     string        `json:"codename"`
	Type         string        `json:"type"`
	Ratings      []cellMessage `json:"ratings"`
}

type cellMessage struct {
	Condition string   `json:"condition"`
	Rating    *float64 `json:"rating"`
	Error     string   `json:"error,omitempty"`
	Category  string   `json:"category,omitempty"`
}

// Publish writes every row of t in a single batch.
func (p *Publisher) Publish(ctx context.Context, t batch.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	at := p.now().UTC()
	msgs := make([]kafkago.Message, len(t.Rows))
	for i, r := range t.Rows {
		msg, err := serializeRow(t, r, at)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish ratings: %w", err)
	}
	if p.logger != nil {
		p.logger.Info("ratings published", "rows", len(msgs))
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeRow(t batch.Table, r batch.Row, at time.Time) (kafkago.Message, error) {
	m := rowMessage{
		Manufacturer: r.Entry.Manufacturer,
		Codename:     r.Entry.Codename,
		Type:         r.Entry.Profile.Type().String(),
		Ratings:      make([]cellMessage, len(r.Cells)),
	}
	for j, c := range r.Cells {
		cm := cellMessage{Condition: t.Conditions[j].Description}
		if c.OK() {
			v := c.Rating
			cm.Rating = &v
		} else {
			cm.Error = c.Err.Error()
			cm.Category = ampacity.Category(c.Err)
		}
		m.Ratings[j] = cm
	}

	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ratings row %s: %w", r.Entry.Codename, err)
	}
	return kafkago.Message{
		Key:   []byte(r.Entry.Codename),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "manufacturer", Value: []byte(r.Entry.Manufacturer)},
			{Key: "published_at", Value: []byte(at.Format(time.RFC3339))},
		},
	}, nil
}
