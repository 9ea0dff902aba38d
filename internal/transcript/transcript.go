// Package transcript implements the append-only message log owned by a
// chat or call session.
package transcript

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// Clock returns the current time.
type Clock func() time.Time

// Transcript is the ordered message log of one session. It is not safe for
// concurrent use; the owning console serializes access.
type Transcript struct {
	sessionID string
	clock     Clock
	messages  []model.InteractionMessage
	lastSeq   uint64
	lastTime  time.Time
}

// New creates an empty transcript for a session.
func New(sessionID string, clock Clock) *Transcript {
	if clock == nil {
		clock = time.Now
	}
	return &Transcript{sessionID: sessionID, clock: clock}
}

// Append adds a message and returns it. Sequence numbers strictly increase
// and timestamps never go backwards, even if the clock does.
func (t *Transcript) Append(role model.Role, content, context string) model.InteractionMessage {
	now := t.clock()
	if now.Before(t.lastTime) {
		now = t.lastTime
	}
	t.lastTime = now
	t.lastSeq++

	msg := model.InteractionMessage{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Sequence:  t.lastSeq,
		SessionID: t.sessionID,
		Role:      role,
		Content:   content,
		Timestamp: now,
		Context:   context,
	}
	t.messages = append(t.messages, msg)
	return msg
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Messages returns a copy of the log in insertion order.
func (t *Transcript) Messages() []model.InteractionMessage {
	return append([]model.InteractionMessage(nil), t.messages...)
}

// Render concatenates the log, one "Speaker: text" line per message.
func (t *Transcript) Render() string {
	return Render(t.messages)
}

// Render concatenates messages the way a transcript displays them.
func Render(messages []model.InteractionMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Role.Label())
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
