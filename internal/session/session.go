package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"StockAnalyst/internal/model"
)

// ErrNotFound is returned for unknown or pruned session ids.
var ErrNotFound = errors.New("session not found")

// Transcript is the append-only message history of one session.
type Transcript struct {
	mu       sync.Mutex
	id       string
	messages []model.Message
	lastSeen time.Time
}

// ID returns the session id.
func (t *Transcript) ID() string { return t.id }

// Append adds a message to the end of the transcript.
func (t *Transcript) Append(role model.Role, content string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, model.Message{Role: role, Content: content, At: at})
	t.lastSeen = at
}

// Messages returns a copy of the transcript in insertion order.
func (t *Transcript) Messages() []model.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Message(nil), t.messages...)
}

func (t *Transcript) idleSince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSeen
}

// Manager keeps in-memory transcripts keyed by session id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Transcript
	now      func() time.Time
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Transcript),
		now:      time.Now,
	}
}

// Create starts a new session with a random id.
func (m *Manager) Create() *Transcript {
	t := &Transcript{id: uuid.NewString(), lastSeen: m.now()}
	m.mu.Lock()
	m.sessions[t.id] = t
	m.mu.Unlock()
	return t
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Transcript, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// GetOrCreate returns the session with the given id, or a new one when the id
// is empty, malformed or unknown.
func (m *Manager) GetOrCreate(id string) *Transcript {
	if _, err := uuid.Parse(id); err == nil {
		if t, err := m.Get(id); err == nil {
			return t
		}
	}
	return m.Create()
}

// Exchange appends a user query and the assistant reply to the session.
func (m *Manager) Exchange(t *Transcript, query, reply string) {
	now := m.now()
	t.Append(model.RoleUser, query, now)
	t.Append(model.RoleAssistant, reply, now)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune removes sessions idle for longer than ttl and returns how many were removed.
func (m *Manager) Prune(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, t := range m.sessions {
		if t.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
