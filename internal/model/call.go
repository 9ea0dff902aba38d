package model

import (
	"fmt"
	"time"
)

// CallStatus is the lifecycle status of a session record.
type CallStatus string

const (
	// CallQueued only appears on externally seeded history records.
	CallQueued     CallStatus = "queued"
	CallInProgress CallStatus = "in-progress"
	CallCompleted  CallStatus = "completed"
)

// CallRecord is a chat or call-center session.
type CallRecord struct {
	ID              string               `json:"id"`
	Channel         Channel              `json:"channel"`
	CustomerName    string               `json:"customerName"`
	PhoneNumber     string               `json:"phoneNumber,omitempty"`
	Status          CallStatus           `json:"status"`
	AIHandled       bool                 `json:"aiHandled"`
	Satisfaction    float64              `json:"satisfaction"`
	Transcript      string               `json:"transcript"`
	Messages        []InteractionMessage `json:"messages"`
	StartedAt       time.Time            `json:"startedAt"`
	EndedAt         *time.Time           `json:"endedAt,omitempty"`
	Duration        string               `json:"duration"`
	DurationSeconds float64              `json:"durationSeconds"`
}

// Clone returns a deep copy of r so callers can hand it out as a snapshot.
func (r CallRecord) Clone() CallRecord {
	out := r
	out.Messages = append([]InteractionMessage(nil), r.Messages...)
	if r.EndedAt != nil {
		t := *r.EndedAt
		out.EndedAt = &t
	}
	return out
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
