package feedback

import (
	"errors"
	"fmt"
)

var (
	// ErrInboxNotFound is returned when no inbox has the requested id.
	ErrInboxNotFound = errors.New("inbox not found")

	// ErrInboxExpired is returned when a message is posted after expiry.
	ErrInboxExpired = errors.New("inbox is expired")

	// ErrSignatureRequired is returned when an unsigned message is posted to
	// an inbox that requires signatures.
	ErrSignatureRequired = errors.New("anonymous messages not allowed")

	// ErrEditNotPermitted matches every rejected topic edit.
	ErrEditNotPermitted = errors.New("inbox topic edit not allowed")

	// ErrNotOwner is a topic edit by someone other than the owner.
	ErrNotOwner = fmt.Errorf("%w: not the owner", ErrEditNotPermitted)

	// ErrInboxNotEmpty is a topic edit on an inbox that already has messages.
	ErrInboxNotEmpty = fmt.Errorf("%w: inbox already has messages", ErrEditNotPermitted)

	// ErrIDCollision is returned by Database.SaveNewInbox when the id is taken.
	ErrIDCollision = errors.New("inbox id already exists")

	ErrInvalidID       = errors.New("inbox id must not be empty")
	ErrInvalidTopic    = errors.New("topic must not be empty")
	ErrInvalidExpiry   = errors.New("expires_in_hours out of range")
	ErrEmptyBody       = errors.New("message body must not be empty")
	ErrAnonymousOwner  = errors.New("username and secret are required to create an inbox")
	ErrAnonymousEditor = errors.New("username and secret are required to edit an inbox")
)
