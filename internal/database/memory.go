package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"feedback-go/internal/feedback"
)

// MemoryDatabase is an in-memory implementation of feedback.Database.
// Inboxes are copied on the way in and out, so callers never share state
// with the store. This implementation is safe for concurrent use.
type MemoryDatabase struct {
	mu      sync.RWMutex
	inboxes map[string]*feedback.Inbox
	seq     map[string]int // insertion order for stable listing
	next    int
}

// NewMemoryDatabase creates an empty in-memory database.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		inboxes: make(map[string]*feedback.Inbox),
		seq:     make(map[string]int),
	}
}

func cloneInbox(i *feedback.Inbox) *feedback.Inbox {
	return feedback.RestoreInbox(i.ID(), i.Topic(), i.OwnerSignature(), i.RequiresSignature(), i.CreatedAt(), i.ExpiresAt(), i.Messages())
}

func (m *MemoryDatabase) SaveNewInbox(_ context.Context, inbox *feedback.Inbox) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.inboxes[inbox.ID()]; ok {
		return fmt.Errorf("saving inbox %s: %w", inbox.ID(), feedback.ErrIDCollision)
	}
	m.inboxes[inbox.ID()] = cloneInbox(inbox)
	m.next++
	m.seq[inbox.ID()] = m.next
	return nil
}

func (m *MemoryDatabase) FindInboxByID(_ context.Context, id string) (*feedback.Inbox, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inbox, ok := m.inboxes[id]
	if !ok {
		return nil, nil
	}
	return cloneInbox(inbox), nil
}

func (m *MemoryDatabase) ListInboxes(_ context.Context) ([]*feedback.Inbox, error) {
	return m.list(func(*feedback.Inbox) bool { return true }), nil
}

func (m *MemoryDatabase) ListInboxesByOwner(_ context.Context, ownerSignature string) ([]*feedback.Inbox, error) {
	return m.list(func(i *feedback.Inbox) bool { return i.OwnerSignature() == ownerSignature }), nil
}

func (m *MemoryDatabase) list(keep func(*feedback.Inbox) bool) []*feedback.Inbox {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*feedback.Inbox{}
	for _, inbox := range m.inboxes {
		if keep(inbox) {
			result = append(result, cloneInbox(inbox))
		}
	}

	// Same ordering as the SQLite store: creation time, then insertion.
	sort.Slice(result, func(a, b int) bool {
		ca, cb := result[a].CreatedAt(), result[b].CreatedAt()
		if !ca.Equal(cb) {
			return ca.Before(cb)
		}
		return m.seq[result[a].ID()] < m.seq[result[b].ID()]
	})
	return result
}

func (m *MemoryDatabase) UpdateInboxTopic(_ context.Context, id string, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inbox, ok := m.inboxes[id]
	if !ok {
		return fmt.Errorf("updating inbox %s: %w", id, feedback.ErrInboxNotFound)
	}
	m.inboxes[id] = feedback.RestoreInbox(inbox.ID(), topic, inbox.OwnerSignature(), inbox.RequiresSignature(), inbox.CreatedAt(), inbox.ExpiresAt(), inbox.Messages())
	return nil
}

func (m *MemoryDatabase) AppendMessage(_ context.Context, id string, msg feedback.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inbox, ok := m.inboxes[id]
	if !ok {
		return fmt.Errorf("appending to inbox %s: %w", id, feedback.ErrInboxNotFound)
	}
	// Rule checks already ran in the service; the gateway only stores.
	messages := append(inbox.Messages(), msg)
	m.inboxes[id] = feedback.RestoreInbox(inbox.ID(), inbox.Topic(), inbox.OwnerSignature(), inbox.RequiresSignature(), inbox.CreatedAt(), inbox.ExpiresAt(), messages)
	return nil
}

// MigrateUp is a no-op; the memory store has no schema.
func (m *MemoryDatabase) MigrateUp() error { return nil }

// CheckMigrations always succeeds for the memory store.
func (m *MemoryDatabase) CheckMigrations() error { return nil }

// Close is a no-op.
func (m *MemoryDatabase) Close() error { return nil }

// Compile-time check that MemoryDatabase implements Store.
var _ Store = (*MemoryDatabase)(nil)
