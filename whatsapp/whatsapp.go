// Package whatsapp defines the narrow transport contract the bot speaks and
// an HTTP client for a WhatsApp gateway exposing that contract over REST.
package whatsapp

import "context"

// Inbound is one received chat message, already flattened by the gateway.
type Inbound struct {
	ID       string `json:"id"`
	From     string `json:"from"` // chat address, e.g. 556234567890@c.us
	Body     string `json:"body"`
	IsGroup  bool   `json:"is_group"`
	PushName string `json:"push_name,omitempty"`
}

// Sender dispatches one text message to a chat address.
type Sender interface {
	SendText(ctx context.Context, address, text string) error
}

// Typing toggles the composing indicator. Both calls are best effort: the
// caller ignores failures, a missing indicator never blocks a reply.
type Typing interface {
	StartTyping(ctx context.Context, address string) error
	StopTyping(ctx context.Context, address string) error
}
