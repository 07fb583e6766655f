package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/eslsoft/lvgames/internal/entity"
)

// Manager keeps one session per configured game.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager registers sessions under their game names.
func NewManager(sessions ...*Session) *Manager {
	m := &Manager{sessions: make(map[string]*Session, len(sessions))}
	for _, s := range sessions {
		m.Register(s)
	}
	return m
}

// Register adds or replaces the session of s.Game().
func (m *Manager) Register(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Game()] = s
}

// Get returns the session of game.
func (m *Manager) Get(game string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[strings.TrimSpace(game)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", game, entity.ErrGameNotFound)
	}
	return s, nil
}

// Games lists the registered game names in order.
func (m *Manager) Games() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
