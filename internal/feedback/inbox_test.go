package feedback

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func mustNewInbox(t *testing.T, owner *User, requiresSignature bool, expiresIn time.Duration) *Inbox {
	t.Helper()
	inbox, err := NewInbox("inbox-1", "Feedback?", owner.Signature(), requiresSignature, expiresIn, testNow)
	if err != nil {
		t.Fatalf("NewInbox() error = %v", err)
	}
	return inbox
}

func mustMessage(t *testing.T, body string, author *User) Message {
	t.Helper()
	msg, err := NewMessage(body, author, testNow)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	return msg
}

func TestNewInbox(t *testing.T) {
	t.Run("sets timestamps from now", func(t *testing.T) {
		inbox := mustNewInbox(t, NewUser("alice", "s3cret"), true, 24*time.Hour)

		if !inbox.CreatedAt().Equal(testNow) {
			t.Errorf("CreatedAt() = %v, want %v", inbox.CreatedAt(), testNow)
		}
		if !inbox.ExpiresAt().Equal(testNow.Add(24 * time.Hour)) {
			t.Errorf("ExpiresAt() = %v, want %v", inbox.ExpiresAt(), testNow.Add(24*time.Hour))
		}
		if !inbox.IsEmpty() {
			t.Error("IsEmpty() = false for new inbox")
		}
	})

	tests := []struct {
		name    string
		id      string
		topic   string
		wantErr error
	}{
		{"empty id", "", "topic", ErrInvalidID},
		{"empty topic", "id", "", ErrInvalidTopic},
		{"blank topic", "id", "   ", ErrInvalidTopic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInbox(tt.id, tt.topic, "owner#sig", false, time.Hour, testNow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewInbox() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInbox_RequiresSignature(t *testing.T) {
	alice := NewUser("alice", "s3cret")
	inbox := mustNewInbox(t, alice, true, 24*time.Hour)

	t.Run("rejects anonymous message", func(t *testing.T) {
		err := inbox.AddMessage(mustMessage(t, "hi", Anonymous()), testNow)
		if !errors.Is(err, ErrSignatureRequired) {
			t.Errorf("AddMessage() error = %v, want ErrSignatureRequired", err)
		}
		if !inbox.IsEmpty() {
			t.Error("rejected message was stored")
		}
	})

	t.Run("accepts signed message", func(t *testing.T) {
		if err := inbox.AddMessage(mustMessage(t, "Great talk", NewUser("bob", "pw")), testNow); err != nil {
			t.Fatalf("AddMessage() error = %v", err)
		}

		owner := inbox.ViewFor(alice.Signature())
		if !owner.IsOwnerView() || len(owner.Messages) != 1 {
			t.Errorf("owner view messages = %v, want 1 message", owner.Messages)
		}

		public := inbox.ViewFor("")
		if public.IsOwnerView() || public.Messages != nil {
			t.Errorf("public view messages = %v, want nil", public.Messages)
		}
	})
}

func TestInbox_EditTopic(t *testing.T) {
	alice := NewUser("alice", "s3cret")

	t.Run("owner edits empty inbox", func(t *testing.T) {
		inbox := mustNewInbox(t, alice, false, time.Hour)

		if !inbox.CanEditTopic(alice.Signature()) {
			t.Error("CanEditTopic() = false for owner of empty inbox")
		}
		if err := inbox.EditTopic("New topic", alice.Signature()); err != nil {
			t.Fatalf("EditTopic() error = %v", err)
		}
		if inbox.Topic() != "New topic" {
			t.Errorf("Topic() = %q, want %q", inbox.Topic(), "New topic")
		}
	})

	t.Run("rejected once messages exist", func(t *testing.T) {
		inbox := mustNewInbox(t, alice, false, time.Hour)
		for _, body := range []string{"one", "two"} {
			if err := inbox.AddMessage(mustMessage(t, body, Anonymous()), testNow); err != nil {
				t.Fatalf("AddMessage() error = %v", err)
			}
		}

		err := inbox.EditTopic("New topic", alice.Signature())
		if !errors.Is(err, ErrInboxNotEmpty) || !errors.Is(err, ErrEditNotPermitted) {
			t.Errorf("EditTopic() error = %v, want ErrInboxNotEmpty wrapping ErrEditNotPermitted", err)
		}
		if inbox.Topic() != "Feedback?" {
			t.Errorf("Topic() = %q, want unchanged", inbox.Topic())
		}
	})

	t.Run("rejected for wrong secret", func(t *testing.T) {
		inbox := mustNewInbox(t, alice, false, time.Hour)
		impostor := NewUser("alice", "wrong")

		if inbox.CanEditTopic(impostor.Signature()) {
			t.Error("CanEditTopic() = true for impostor")
		}
		err := inbox.EditTopic("Hijacked", impostor.Signature())
		if !errors.Is(err, ErrNotOwner) || !errors.Is(err, ErrEditNotPermitted) {
			t.Errorf("EditTopic() error = %v, want ErrNotOwner wrapping ErrEditNotPermitted", err)
		}
	})

	t.Run("rejected for anonymous", func(t *testing.T) {
		inbox := mustNewInbox(t, alice, false, time.Hour)
		if err := inbox.EditTopic("x", ""); !errors.Is(err, ErrNotOwner) {
			t.Errorf("EditTopic() error = %v, want ErrNotOwner", err)
		}
	})

	t.Run("rejects blank topic", func(t *testing.T) {
		inbox := mustNewInbox(t, alice, false, time.Hour)
		if err := inbox.EditTopic(" ", alice.Signature()); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("EditTopic() error = %v, want ErrInvalidTopic", err)
		}
	})
}

func TestInbox_Expiry(t *testing.T) {
	t.Run("negative duration is already expired", func(t *testing.T) {
		inbox := mustNewInbox(t, NewUser("alice", "s3cret"), false, -time.Hour)

		err := inbox.AddMessage(mustMessage(t, "late", NewUser("bob", "pw")), testNow)
		if !errors.Is(err, ErrInboxExpired) {
			t.Errorf("AddMessage() error = %v, want ErrInboxExpired", err)
		}
	})

	t.Run("boundary", func(t *testing.T) {
		inbox := mustNewInbox(t, NewUser("alice", "s3cret"), false, time.Hour)
		expiresAt := inbox.ExpiresAt()

		tests := []struct {
			name    string
			now     time.Time
			expired bool
		}{
			{"before expiry", expiresAt.Add(-time.Nanosecond), false},
			{"at expiry", expiresAt, false},
			{"after expiry", expiresAt.Add(time.Nanosecond), true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := inbox.IsExpired(tt.now); got != tt.expired {
					t.Errorf("IsExpired() = %v, want %v", got, tt.expired)
				}
			})
		}
	})

	t.Run("expiry checked before signature", func(t *testing.T) {
		inbox := mustNewInbox(t, NewUser("alice", "s3cret"), true, -time.Hour)
		err := inbox.AddMessage(mustMessage(t, "late", Anonymous()), testNow)
		if !errors.Is(err, ErrInboxExpired) {
			t.Errorf("AddMessage() error = %v, want ErrInboxExpired", err)
		}
	})
}

func TestInbox_Ownership(t *testing.T) {
	a1 := NewUser("alice", "s3cret")
	a2 := NewUser("alice", "s3cret")
	wrong := NewUser("alice", "wrong")

	if a1.Signature() != a2.Signature() {
		t.Fatalf("independent identities differ: %q vs %q", a1.Signature(), a2.Signature())
	}
	if wrong.Signature() == a1.Signature() {
		t.Fatal("wrong secret produced owner signature")
	}

	inbox := mustNewInbox(t, a1, false, time.Hour)
	if !inbox.IsOwner(a2.Signature()) {
		t.Error("IsOwner() = false for same credentials")
	}
	if inbox.IsOwner(wrong.Signature()) {
		t.Error("IsOwner() = true for wrong secret")
	}

	unowned, _ := NewInbox("x", "t", "", false, time.Hour, testNow)
	if unowned.IsOwner("") {
		t.Error("IsOwner(\"\") = true for inbox without owner")
	}
}

func TestInbox_MessagesIsCopy(t *testing.T) {
	inbox := mustNewInbox(t, NewUser("alice", "s3cret"), false, time.Hour)
	inbox.AddMessage(mustMessage(t, "original", Anonymous()), testNow)

	msgs := inbox.Messages()
	msgs[0].Body = "tampered"

	if inbox.Messages()[0].Body != "original" {
		t.Error("mutating Messages() result changed the inbox")
	}
}

func TestRestoreInbox(t *testing.T) {
	msgs := []Message{{Body: "a", Timestamp: testNow}}
	inbox := RestoreInbox("id", "topic", "o#1", true, testNow, testNow.Add(time.Hour), msgs)
	msgs[0].Body = "changed"

	if inbox.Messages()[0].Body != "a" {
		t.Error("RestoreInbox() kept a reference to the caller's slice")
	}
	if inbox.MessageCount() != 1 || !inbox.RequiresSignature() || inbox.OwnerSignature() != "o#1" {
		t.Errorf("RestoreInbox() = %+v", inbox)
	}
}
