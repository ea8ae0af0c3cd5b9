// Package assistant talks to the upstream conversational API that produces
// the bot's answers.
package assistant

import (
	"context"
	"errors"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnavailable marks transient transport or upstream failures and is
// retryable. ErrBadResponse marks a reply the API produced but this client
// could not use; retrying with the same input is unlikely to help.
var (
	ErrUnavailable = errors.New("assistant unavailable")
	ErrBadResponse = errors.New("assistant returned an invalid response")
)

type Client interface {
	// LoadUserData primes the upstream API with the user's data. Required
	// once per session before the first Converse call.
	LoadUserData(ctx context.Context, userID, userName string) error

	// Converse sends one user query with the running conversation history
	// and returns the assistant's answer.
	Converse(ctx context.Context, userID, userName, query string, history []Message) (string, error)
}
