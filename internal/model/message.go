package model

import (
	"time"
)

// Role represents the author of an interaction message.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAssistant Role = "assistant"
)

// Label is the speaker prefix used when rendering transcripts.
func (r Role) Label() string {
	switch r {
	case RoleCustomer:
		return "Customer"
	case RoleAssistant:
		return "AI"
	default:
		return string(r)
	}
}

// Channel identifies the subsystem an interaction belongs to.
type Channel string

const (
	ChannelChat       Channel = "chat"
	ChannelCallCenter Channel = "call-center"
	ChannelVision     Channel = "vision"
)

// InteractionMessage is one entry of a session transcript. It is never
// modified after it has been appended.
type InteractionMessage struct {
	ID        string    `json:"id"`
	Sequence  uint64    `json:"sequence"`
	SessionID string    `json:"sessionId"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context,omitempty"`
}
