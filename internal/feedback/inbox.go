package feedback

import (
	"strings"
	"time"
)

// Inbox is the aggregate root. It owns an append-only list of messages and
// enforces the expiry, signature and ownership rules. Its state (active,
// expired, empty or not) is derived from the clock and the message list;
// nothing is stored as a status.
type Inbox struct {
	id                string
	topic             string
	ownerSignature    string
	requiresSignature bool
	createdAt         time.Time
	expiresAt         time.Time
	messages          []Message
}

// NewInbox creates an empty inbox that expires expiresIn after now.
// A negative expiresIn yields an inbox that is already expired; range checks
// on user input belong to FeedbackService.CreateInbox.
func NewInbox(id, topic, ownerSignature string, requiresSignature bool, expiresIn time.Duration, now time.Time) (*Inbox, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(topic) == "" {
		return nil, ErrInvalidTopic
	}
	now = now.UTC()
	return &Inbox{
		id:                id,
		topic:             topic,
		ownerSignature:    ownerSignature,
		requiresSignature: requiresSignature,
		createdAt:         now,
		expiresAt:         now.Add(expiresIn),
	}, nil
}

// RestoreInbox rebuilds an inbox from persisted state. It is meant for
// Database implementations and performs no rule checks.
func RestoreInbox(id, topic, ownerSignature string, requiresSignature bool, createdAt, expiresAt time.Time, messages []Message) *Inbox {
	return &Inbox{
		id:                id,
		topic:             topic,
		ownerSignature:    ownerSignature,
		requiresSignature: requiresSignature,
		createdAt:         createdAt.UTC(),
		expiresAt:         expiresAt.UTC(),
		messages:          append([]Message(nil), messages...),
	}
}

func (i *Inbox) ID() string              { return i.id }
func (i *Inbox) Topic() string           { return i.topic }
func (i *Inbox) OwnerSignature() string  { return i.ownerSignature }
func (i *Inbox) RequiresSignature() bool { return i.requiresSignature }
func (i *Inbox) CreatedAt() time.Time    { return i.createdAt }
func (i *Inbox) ExpiresAt() time.Time    { return i.expiresAt }
func (i *Inbox) MessageCount() int       { return len(i.messages) }
func (i *Inbox) IsEmpty() bool           { return len(i.messages) == 0 }

// Messages returns a copy of the messages in arrival order.
func (i *Inbox) Messages() []Message {
	out := make([]Message, len(i.messages))
	copy(out, i.messages)
	return out
}

// IsExpired reports whether now is strictly after the expiry instant.
// At exactly expiresAt the inbox still accepts messages.
func (i *Inbox) IsExpired(now time.Time) bool {
	return now.After(i.expiresAt)
}

// IsOwner reports whether signature belongs to the inbox owner.
// An empty signature is never the owner, even for an inbox created without one.
func (i *Inbox) IsOwner(signature string) bool {
	return signature != "" && signature == i.ownerSignature
}

// CanEditTopic reports whether signature may change the topic right now.
func (i *Inbox) CanEditTopic(signature string) bool {
	return i.IsOwner(signature) && i.IsEmpty()
}

// AddMessage appends msg unless the inbox is expired at now or requires a
// signature the message does not carry.
func (i *Inbox) AddMessage(msg Message, now time.Time) error {
	if i.IsExpired(now) {
		return ErrInboxExpired
	}
	if i.requiresSignature && !msg.IsSigned() {
		return ErrSignatureRequired
	}
	i.messages = append(i.messages, msg)
	return nil
}

// EditTopic replaces the topic. Only the owner may do so, and only while the
// inbox has no messages.
func (i *Inbox) EditTopic(topic, signature string) error {
	if !i.IsOwner(signature) {
		return ErrNotOwner
	}
	if !i.IsEmpty() {
		return ErrInboxNotEmpty
	}
	if strings.TrimSpace(topic) == "" {
		return ErrInvalidTopic
	}
	i.topic = topic
	return nil
}

// ViewFor projects the inbox for the holder of signature.
func (i *Inbox) ViewFor(signature string) *InboxView {
	if i.IsOwner(signature) {
		return &InboxView{Inbox: i, Messages: i.Messages()}
	}
	return &InboxView{Inbox: i}
}
