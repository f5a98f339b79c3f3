package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxIDAttempts bounds how many fresh ids CreateInbox tries on collision.
const MaxIDAttempts = 5

// maxExpiresInHours is the largest expiry that fits in a time.Duration. It
// applies even when Policy.MaxExpiresInHours is unlimited.
const maxExpiresInHours = math.MaxInt64 / int64(time.Hour)

// ListScope selects which inboxes ListInboxes returns.
type ListScope int

const (
	// ScopeDefault lists the caller's own inboxes when identified and all
	// inboxes when anonymous.
	ScopeDefault ListScope = iota
	// ScopeOwned lists only inboxes owned by the caller.
	ScopeOwned
	// ScopeAll lists every inbox.
	ScopeAll
)

// ParseListScope maps "", "owned" and "all" to a ListScope.
func ParseListScope(s string) (ListScope, error) {
	switch s {
	case "":
		return ScopeDefault, nil
	case "owned":
		return ScopeOwned, nil
	case "all":
		return ScopeAll, nil
	default:
		return ScopeDefault, fmt.Errorf("unknown list scope: %q", s)
	}
}

// Policy holds the tunable limits of the service.
type Policy struct {
	SignatureSeparator string
	MaxExpiresInHours  int // 0 means unlimited
}

// DefaultPolicy returns the separator "#" and a 30 day expiry limit.
func DefaultPolicy() Policy {
	return Policy{
		SignatureSeparator: DefaultSeparator,
		MaxExpiresInHours:  30 * 24,
	}
}

// FeedbackService is the orchestration layer between the transport and the
// domain. It loads inboxes from the Database, applies the Inbox rules in
// memory and persists the result.
type FeedbackService struct {
	database Database
	policy   Policy
	logger   Logger
	clock    Clock
	idgen    IDGenerator
	locks    *keyedMutex
}

// NewFeedbackService creates a FeedbackService with the provided dependencies.
func NewFeedbackService(database Database, policy Policy, logger Logger, clock Clock, idgen IDGenerator) *FeedbackService {
	if policy.SignatureSeparator == "" {
		policy.SignatureSeparator = DefaultSeparator
	}
	return &FeedbackService{
		database: database,
		policy:   policy,
		logger:   logger,
		clock:    clock,
		idgen:    idgen,
		locks:    newKeyedMutex(),
	}
}

// Identify builds the caller's identity from optional credentials.
func (s *FeedbackService) Identify(username, secret string) *User {
	return NewUserWithSeparator(username, secret, s.policy.SignatureSeparator)
}

// ReadInbox returns the view of inbox id appropriate for user.
func (s *FeedbackService) ReadInbox(ctx context.Context, id string, user *User) (*InboxView, error) {
	s.logger.Debug("reading inbox", "id", id)

	inbox, err := s.findInbox(ctx, id)
	if err != nil {
		return nil, err
	}
	return inbox.ViewFor(user.Signature()), nil
}

// ListInboxes returns views of the inboxes selected by scope.
func (s *FeedbackService) ListInboxes(ctx context.Context, user *User, scope ListScope) ([]*InboxView, error) {
	if scope == ScopeDefault {
		scope = ScopeOwned
		if user.IsAnonymous() {
			scope = ScopeAll
		}
	}
	s.logger.Debug("listing inboxes", "scope", scope, "anonymous", user.IsAnonymous())

	var (
		inboxes []*Inbox
		err     error
	)
	switch scope {
	case ScopeAll:
		inboxes, err = s.database.ListInboxes(ctx)
	case ScopeOwned:
		if user.IsAnonymous() {
			return []*InboxView{}, nil
		}
		inboxes, err = s.database.ListInboxesByOwner(ctx, user.Signature())
	}
	if err != nil {
		return nil, fmt.Errorf("listing inboxes: %w", err)
	}

	views := make([]*InboxView, len(inboxes))
	for i, inbox := range inboxes {
		views[i] = inbox.ViewFor(user.Signature())
	}
	return views, nil
}

// CreateInbox creates and stores a new inbox owned by user.
func (s *FeedbackService) CreateInbox(ctx context.Context, topic string, user *User, requiresSignature bool, expiresInHours int) (*InboxView, error) {
	if user.IsAnonymous() {
		return nil, ErrAnonymousOwner
	}
	if expiresInHours <= 0 || int64(expiresInHours) > maxExpiresInHours ||
		(s.policy.MaxExpiresInHours > 0 && expiresInHours > s.policy.MaxExpiresInHours) {
		return nil, ErrInvalidExpiry
	}

	expiresIn := time.Duration(expiresInHours) * time.Hour
	for attempt := 1; ; attempt++ {
		inbox, err := NewInbox(s.idgen.New(), topic, user.Signature(), requiresSignature, expiresIn, s.clock.Now())
		if err != nil {
			return nil, err
		}

		err = s.database.SaveNewInbox(ctx, inbox)
		if err == nil {
			s.logger.Info("inbox created", "id", inbox.ID(), "owner", user.Signature(), "requires_signature", requiresSignature, "expires_at", inbox.ExpiresAt())
			return inbox.ViewFor(user.Signature()), nil
		}
		if !errors.Is(err, ErrIDCollision) {
			return nil, fmt.Errorf("saving inbox: %w", err)
		}
		if attempt >= MaxIDAttempts {
			return nil, fmt.Errorf("saving inbox after %d attempts: %w", attempt, err)
		}
		s.logger.Warn("inbox id collision, retrying", "id", inbox.ID(), "attempt", attempt)
	}
}

// EditInboxTopic changes the topic of inbox id on behalf of user.
func (s *FeedbackService) EditInboxTopic(ctx context.Context, id string, topic string, user *User) (*InboxView, error) {
	if user.IsAnonymous() {
		return nil, ErrAnonymousEditor
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	inbox, err := s.findInbox(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := inbox.EditTopic(topic, user.Signature()); err != nil {
		s.logger.Warn("topic edit rejected", "id", id, "signature", user.Signature(), "reason", err)
		return nil, err
	}

	if err := s.database.UpdateInboxTopic(ctx, id, inbox.Topic()); err != nil {
		return nil, fmt.Errorf("updating topic: %w", err)
	}

	s.logger.Info("inbox topic edited", "id", id)
	return inbox.ViewFor(user.Signature()), nil
}

// PostMessage appends a message from user to inbox id.
func (s *FeedbackService) PostMessage(ctx context.Context, id string, body string, user *User) (Message, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	inbox, err := s.findInbox(ctx, id)
	if err != nil {
		return Message{}, err
	}

	now := s.clock.Now()
	msg, err := NewMessage(body, user, now)
	if err != nil {
		return Message{}, err
	}

	if err := inbox.AddMessage(msg, now); err != nil {
		s.logger.Warn("message rejected", "id", id, "signed", msg.IsSigned(), "reason", err)
		return Message{}, err
	}

	if err := s.database.AppendMessage(ctx, id, msg); err != nil {
		return Message{}, fmt.Errorf("appending message: %w", err)
	}

	s.logger.Info("message posted", "id", id, "signed", msg.IsSigned())
	return msg, nil
}

// Now returns the service clock's current time.
func (s *FeedbackService) Now() time.Time {
	return s.clock.Now()
}

func (s *FeedbackService) findInbox(ctx context.Context, id string) (*Inbox, error) {
	inbox, err := s.database.FindInboxByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding inbox: %w", err)
	}
	if inbox == nil {
		return nil, ErrInboxNotFound
	}
	return inbox, nil
}
