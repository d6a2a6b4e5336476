// Package email delivers outbound notifications through an external provider.
package email

import (
	"context"
	"errors"
	"time"
)

var ErrNoRecipients = errors.New("email: no recipients")

// Message is one outbound email.
type Message struct {
	To      []string
	From    string // falls back to the sender's default when empty
	Subject string
	HTML    string
	Text    string // plain-text alternative
}

// Receipt is what the provider reports back for an accepted message.
type Receipt struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
