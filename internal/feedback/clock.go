package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so expiry decisions are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator produces candidate inbox ids. Uniqueness is confirmed by
// Database.SaveNewInbox; collisions are retried by the service.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }
