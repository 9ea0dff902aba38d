// Package events defines how workspace changes are announced to subscribers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// Publisher delivers console events. Implementations must not block the
// caller for long; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event *model.ConsoleEvent) error
}

// New builds an event with a fresh ID and timestamp.
func New(operatorID string, typ model.EventType, channel model.Channel, subjectID string) *model.ConsoleEvent {
	return &model.ConsoleEvent{
		ID:         uuid.Must(uuid.NewV7()).String(),
		OperatorID: operatorID,
		Type:       typ,
		Channel:    channel,
		SubjectID:  subjectID,
		CreatedAt:  time.Now().UTC(),
	}
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, *model.ConsoleEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []model.ConsoleEvent
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event *model.ConsoleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns the recorded events in publish order.
func (r *Recorder) Events() []model.ConsoleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ConsoleEvent(nil), r.events...)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
