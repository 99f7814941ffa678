// Package events publishes domain events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Envelope wraps every published event.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher sends events to NATS subjects under a common prefix.
type Publisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// Connect dials NATS. An empty url returns (nil, nil); a nil *Publisher is a valid no-op.
func Connect(url, prefix string, logger zerolog.Logger) (*Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url, nats.Name("art-exam-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return NewPublisher(conn, prefix, logger), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		prefix: strings.Trim(prefix, "."),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Conn returns the underlying connection, or nil for a no-op publisher.
func (p *Publisher) Conn() *nats.Conn {
	if p == nil {
		return nil
	}
	return p.conn
}

// Subject returns the full subject name for name under the prefix.
func (p *Publisher) Subject(name string) string {
	if p == nil || p.prefix == "" {
		return name
	}
	return p.prefix + "." + name
}

// Publish marshals payload into an Envelope and publishes it on <prefix>.<eventType>.
func (p *Publisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	if p == nil || p.conn == nil {
		return nil
	}

	data, err := json.Marshal(Envelope{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := p.Subject(eventType)

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Msg("event published")
	return nil
}

// Close drains the underlying connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn().Err(err).Msg("failed to drain nats connection")
	}
}
