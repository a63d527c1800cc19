// Package chat manages session-scoped conversation context: bounded
// sliding-window message histories with idle expiry.
package chat

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlens/ledgerlens/core"
)

// Defaults applied by NewManager when a value is not set.
const (
	DefaultMaxContextLength = 10
	DefaultSessionTimeout   = 24 * time.Hour
)

// session holds one conversation's exclusive history.
type session struct {
	id        string
	messages  []core.Message
	createdAt time.Time
	updatedAt time.Time
}

// Stats summarizes the manager's live sessions.
type Stats struct {
	ActiveSessions int `json:"active_sessions"`
	TotalMessages  int `json:"total_messages"`
}

// Manager owns the session-id -> history mapping.
//
// Missing-session policy is silent recovery, not failure: AddMessage on an
// unknown id creates the session, History on an unknown id returns an empty
// slice. A session id that has expired or been cleared is never reissued;
// re-entry always yields a fresh id.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	maxContext int
	timeout    time.Duration
}

// NewManager creates a manager. Non-positive arguments take the package
// defaults.
func NewManager(maxContext int, timeout time.Duration) *Manager {
	if maxContext <= 0 {
		maxContext = DefaultMaxContextLength
	}
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Manager{
		sessions:   make(map[string]*session),
		maxContext: maxContext,
		timeout:    timeout,
	}
}

// GetOrCreateSession returns the id of a live session. Passing the id of a
// live, non-expired session returns it unchanged. An empty, unknown, or
// expired id yields a newly created session; callers must use the returned
// id, not the one they passed in.
func (m *Manager) GetOrCreateSession(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(id)
}

func (m *Manager) getOrCreateLocked(id string) string {
	if id != "" {
		if sess, ok := m.sessions[id]; ok {
			if time.Since(sess.updatedAt) < m.timeout {
				return id
			}
			delete(m.sessions, id)
		}
	}

	newID := uuid.New().String()
	now := time.Now()
	m.sessions[newID] = &session{
		id:        newID,
		createdAt: now,
		updatedAt: now,
	}
	log.Printf("[CHAT] Created session %s", newID)
	return newID
}

// AddMessage appends a timestamped message to the session, creating the
// session first if the id is unknown. When the history exceeds the maximum
// context length, the oldest messages are dropped.
func (m *Manager) AddMessage(id, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		// ON_MISSING_SESSION = AUTO_CREATE: recover silently under the
		// caller's id so the appended message stays addressable.
		log.Printf("[CHAT] Session %s not found, creating", id)
		now := time.Now()
		sess = &session{id: id, createdAt: now, updatedAt: now}
		m.sessions[id] = sess
	}

	sess.messages = append(sess.messages, core.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if n := len(sess.messages); n > m.maxContext {
		sess.messages = sess.messages[n-m.maxContext:]
	}
	sess.updatedAt = time.Now()
}

// History returns a copy of the session's messages in order, or an empty
// slice for an unknown session.
func (m *Manager) History(id string) []core.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return []core.Message{}
	}
	out := make([]core.Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// ClearSession removes the session. Clearing an unknown id is a no-op.
func (m *Manager) ClearSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		log.Printf("[CHAT] Cleared session %s", id)
	}
}

// CleanupExpired removes every session idle for longer than the timeout
// and returns how many were removed. Intended to run periodically or at
// shutdown.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int
	for id, sess := range m.sessions {
		if time.Since(sess.updatedAt) > m.timeout {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[CHAT] Cleaned up %d expired sessions", removed)
	}
	return removed
}

// Stats reports the active session count and total message count.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{ActiveSessions: len(m.sessions)}
	for _, sess := range m.sessions {
		stats.TotalMessages += len(sess.messages)
	}
	return stats
}
