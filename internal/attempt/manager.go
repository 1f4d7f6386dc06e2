package attempt

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager keeps sessions in memory, one per learner tab.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(d Deps) *Manager {
	return &Manager{deps: d, sessions: map[string]*Session{}}
}

func (m *Manager) Open() (string, *Session) {
	id := uuid.NewString()
	s := NewSession(m.deps)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
