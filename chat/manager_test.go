package chat_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ledgerlens/ledgerlens/chat"
	"github.com/ledgerlens/ledgerlens/core"
)

func TestSessionLifecycle(t *testing.T) {
	m := chat.NewManager(0, 0)

	id := m.GetOrCreateSession("")
	if id == "" {
		t.Fatal("GetOrCreateSession returned empty id")
	}

	m.AddMessage(id, core.RoleUser, "hi")
	history := m.History(id)
	if len(history) != 1 {
		t.Fatalf("History returned %d messages, want 1", len(history))
	}
	if history[0].Role != core.RoleUser || history[0].Content != "hi" {
		t.Errorf("History[0] = %+v", history[0])
	}
	if history[0].Timestamp.IsZero() {
		t.Error("message timestamp not set")
	}

	m.ClearSession(id)
	if got := m.History(id); len(got) != 0 {
		t.Errorf("History after ClearSession returned %d messages", len(got))
	}

	// Clearing again is a no-op, not an error.
	m.ClearSession(id)
}

func TestGetOrCreateSessionReusesLiveSession(t *testing.T) {
	m := chat.NewManager(0, 0)

	id := m.GetOrCreateSession("")
	if again := m.GetOrCreateSession(id); again != id {
		t.Errorf("live session id changed: %s -> %s", id, again)
	}
}

func TestGetOrCreateSessionUnknownIDYieldsNewID(t *testing.T) {
	m := chat.NewManager(0, 0)

	id := m.GetOrCreateSession("never-issued")
	if id == "never-issued" {
		t.Error("unknown requested id was adopted; a fresh id must be generated")
	}
	if id == "" {
		t.Error("no session created for unknown id")
	}
}

func TestAddMessageUnknownSessionAutoCreates(t *testing.T) {
	m := chat.NewManager(0, 0)

	m.AddMessage("ghost", core.RoleUser, "anyone there?")
	history := m.History("ghost")
	if len(history) != 1 || history[0].Content != "anyone there?" {
		t.Fatalf("auto-created session history = %+v", history)
	}
}

func TestSlidingWindow(t *testing.T) {
	m := chat.NewManager(3, 0)

	id := m.GetOrCreateSession("")
	for i := 1; i <= 5; i++ {
		m.AddMessage(id, core.RoleUser, fmt.Sprintf("message %d", i))
	}

	history := m.History(id)
	if len(history) != 3 {
		t.Fatalf("History returned %d messages, want 3", len(history))
	}
	for i, want := range []string{"message 3", "message 4", "message 5"} {
		if history[i].Content != want {
			t.Errorf("History[%d] = %q, want %q", i, history[i].Content, want)
		}
	}
}

func TestHistoryIsDefensiveCopy(t *testing.T) {
	m := chat.NewManager(0, 0)

	id := m.GetOrCreateSession("")
	m.AddMessage(id, core.RoleUser, "original")

	history := m.History(id)
	history[0].Content = "mutated"

	if got := m.History(id); got[0].Content != "original" {
		t.Errorf("caller mutation leaked into session history: %q", got[0].Content)
	}
}

func TestSessionExpiry(t *testing.T) {
	m := chat.NewManager(10, 50*time.Millisecond)

	id := m.GetOrCreateSession("")
	m.AddMessage(id, core.RoleUser, "hello")

	time.Sleep(120 * time.Millisecond)

	if removed := m.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired removed %d sessions, want 1", removed)
	}
	if stats := m.Stats(); stats.ActiveSessions != 0 {
		t.Errorf("ActiveSessions = %d after cleanup, want 0", stats.ActiveSessions)
	}

	// The old identifier is never reissued.
	if newID := m.GetOrCreateSession(id); newID == id {
		t.Error("expired session id was reissued")
	}
}

func TestExpiredSessionReplacedOnAccess(t *testing.T) {
	m := chat.NewManager(10, 50*time.Millisecond)

	id := m.GetOrCreateSession("")
	time.Sleep(120 * time.Millisecond)

	// Access after expiry discards the stale entry even without a cleanup
	// pass.
	newID := m.GetOrCreateSession(id)
	if newID == id {
		t.Error("expired session returned unchanged")
	}
	if got := m.History(id); len(got) != 0 {
		t.Errorf("expired session still has history: %d messages", len(got))
	}
}

func TestStats(t *testing.T) {
	m := chat.NewManager(0, 0)

	a := m.GetOrCreateSession("")
	b := m.GetOrCreateSession("")
	m.AddMessage(a, core.RoleUser, "one")
	m.AddMessage(a, core.RoleAssistant, "two")
	m.AddMessage(b, core.RoleUser, "three")

	stats := m.Stats()
	if stats.ActiveSessions != 2 {
		t.Errorf("ActiveSessions = %d, want 2", stats.ActiveSessions)
	}
	if stats.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d, want 3", stats.TotalMessages)
	}
}
