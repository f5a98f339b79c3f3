package feedback

import (
	"strings"
	"time"
)

// Message is a single post in an inbox. It is a value: once appended to an
// Inbox it is never modified.
type Message struct {
	Body      string
	Timestamp time.Time
	Signature string // empty for anonymous posts
}

// NewMessage creates a message authored by author at now.
// Whether the inbox accepts an unsigned message is decided by Inbox.AddMessage.
func NewMessage(body string, author *User, now time.Time) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, ErrEmptyBody
	}
	return Message{
		Body:      body,
		Timestamp: now.UTC(),
		Signature: author.Signature(),
	}, nil
}

// IsSigned reports whether the message carries a signature.
func (m Message) IsSigned() bool {
	return m.Signature != ""
}
