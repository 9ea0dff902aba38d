package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/pkg/metrics"
)

// DefaultSubjectPrefix is the root of every event subject.
const DefaultSubjectPrefix = "hotelops"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends console events as core NATS messages. Nothing is
// retained server side.
type Publisher struct {
	conn   Conn
	prefix string
}

// NewPublisher creates a publisher on conn.
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject returns prefix.<operator>.<event type>, with event type dots kept
// as subject tokens.
func (p *Publisher) Subject(event *model.ConsoleEvent) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, sanitizeToken(event.OperatorID), event.Type)
}

// Publish implements events.Publisher.
func (p *Publisher) Publish(ctx context.Context, event *model.ConsoleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(p.Subject(event), data); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(string(event.Type), "ok").Inc()
	return nil
}

// sanitizeToken keeps an identifier inside a single subject token.
func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
