package feedback

import (
	"errors"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))

	t.Run("signed by identified author", func(t *testing.T) {
		author := NewUser("bob", "pw")

		msg, err := NewMessage("Great talk!", author, now)
		if err != nil {
			t.Fatalf("NewMessage() error = %v", err)
		}
		if msg.Signature != author.Signature() {
			t.Errorf("Signature = %q, want %q", msg.Signature, author.Signature())
		}
		if !msg.IsSigned() {
			t.Error("IsSigned() = false, want true")
		}
		if msg.Timestamp.Location() != time.UTC || !msg.Timestamp.Equal(now) {
			t.Errorf("Timestamp = %v, want %v in UTC", msg.Timestamp, now)
		}
	})

	t.Run("anonymous author leaves signature empty", func(t *testing.T) {
		msg, err := NewMessage("hi", Anonymous(), now)
		if err != nil {
			t.Fatalf("NewMessage() error = %v", err)
		}
		if msg.IsSigned() {
			t.Errorf("IsSigned() = true, signature %q", msg.Signature)
		}
	})

	t.Run("rejects blank body", func(t *testing.T) {
		for _, body := range []string{"", "  ", "\n\t"} {
			if _, err := NewMessage(body, Anonymous(), now); !errors.Is(err, ErrEmptyBody) {
				t.Errorf("NewMessage(%q) error = %v, want ErrEmptyBody", body, err)
			}
		}
	})
}
