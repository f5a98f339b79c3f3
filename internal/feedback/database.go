package feedback

import "context"

// Database is the persistence gateway for inboxes.
// Implementations must make each write atomic; FeedbackService serializes
// read-modify-write cycles per inbox id on top of that.
type Database interface {
	// SaveNewInbox stores a brand-new inbox, including any messages it holds.
	// Returns ErrIDCollision if an inbox with the same id exists.
	SaveNewInbox(ctx context.Context, inbox *Inbox) error

	// FindInboxByID returns the inbox with its messages in arrival order,
	// or nil, nil if it does not exist.
	FindInboxByID(ctx context.Context, id string) (*Inbox, error)

	// ListInboxes returns every inbox ordered by creation time.
	ListInboxes(ctx context.Context) ([]*Inbox, error)

	// ListInboxesByOwner returns the inboxes created with ownerSignature.
	ListInboxesByOwner(ctx context.Context, ownerSignature string) ([]*Inbox, error)

	// UpdateInboxTopic replaces the topic. Returns ErrInboxNotFound if absent.
	UpdateInboxTopic(ctx context.Context, id string, topic string) error

	// AppendMessage appends msg after the inbox's existing messages.
	// Returns ErrInboxNotFound if absent.
	AppendMessage(ctx context.Context, id string, msg Message) error

	// Close releases the underlying resources.
	Close() error
}
