package session

import (
	"context"
	"testing"
	"time"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("alice")
	if s.Token == "" {
		t.Fatalf("session token should not be empty")
	}

	got, err := m.Get(s.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "alice" || got.Status != StatusActive {
		t.Fatalf("unexpected session state: %+v", got)
	}

	ended, err := m.End(s.Token)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
	if _, err := m.Get(s.Token); err != ErrNotFound {
		t.Fatalf("Get() after End() error = %v, want ErrNotFound", err)
	}
}

func TestManagerSecondLoginReplacesFirst(t *testing.T) {
	m := NewManager(time.Minute)
	first := m.Create("alice")
	second := m.Create("alice")

	if _, err := m.Get(first.Token); err != ErrNotFound {
		t.Fatalf("first session still active after second login")
	}
	if _, err := m.Get(second.Token); err != nil {
		t.Fatalf("second session Get() error = %v", err)
	}
	if m.ActiveCount() != 1 {
		t.Fatalf("ActiveCount() = %d, want 1", m.ActiveCount())
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	s := m.Create("alice")

	expired := make(chan string, 1)
	m.SetExpireHook(func(s *Session) {
		expired <- s.UserID
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case userID := <-expired:
		if userID != "alice" {
			t.Fatalf("expired userID = %q, want %q", userID, "alice")
		}
	case <-time.After(time.Second):
		t.Fatalf("janitor did not expire the inactive session")
	}

	if _, err := m.Get(s.Token); err != ErrNotFound {
		t.Fatalf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}

func TestManagerTouchKeepsSessionAlive(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("alice")
	if err := m.Touch(s.Token); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if err := m.Touch("bogus"); err != ErrNotFound {
		t.Fatalf("Touch(bogus) error = %v, want ErrNotFound", err)
	}
}
