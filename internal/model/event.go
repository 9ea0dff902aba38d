package model

import (
	"time"
)

// EventType represents the type of console event.
type EventType string

const (
	EventSessionStarted   EventType = "session.started"
	EventSessionEnded     EventType = "session.ended"
	EventGatewayFallback  EventType = "gateway.fallback"
	EventImageAnalyzed    EventType = "vision.analyzed"
	EventCustomerUpserted EventType = "customer.upserted"
)

// ConsoleEvent is published when an operator workspace changes.
type ConsoleEvent struct {
	ID         string         `json:"id"`
	OperatorID string         `json:"operator_id"`
	Type       EventType      `json:"type"`
	Channel    Channel        `json:"channel,omitempty"`
	SubjectID  string         `json:"subject_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
