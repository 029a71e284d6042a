// Package session tracks per-conversation history so follow-up
// questions carry context into the model prompt.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/coursechat/coursechat"
)

const defaultMaxHistory = 2

type exchange struct {
	user      string
	assistant string
}

// Manager is an in-memory session store. Histories are bounded: only
// the most recent exchanges are retained per session.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string][]exchange
	maxHistory int
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxHistory sets how many user/assistant exchanges each session
// retains.
func WithMaxHistory(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxHistory = n
		}
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:   make(map[string][]exchange),
		maxHistory: defaultMaxHistory,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session and returns its ID.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = nil
	m.mu.Unlock()
	return id
}

// AddExchange records one user/assistant exchange. Unknown session IDs
// are created implicitly so clients can supply their own.
func (m *Manager) AddExchange(id, userMessage, assistantMessage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[id], exchange{user: userMessage, assistant: assistantMessage})
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[id] = history
}

// History renders a session's retained exchanges for inclusion in a
// prompt. Unknown or empty sessions render as "".
func (m *Manager) History(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[id]
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history)*2)
	for _, e := range history {
		lines = append(lines, "User: "+e.user, "Assistant: "+e.assistant)
	}
	return strings.Join(lines, "\n")
}

// Delete removes a session and its history.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("delete session %q: %w", id, coursechat.ErrSessionNotFound)
	}
	delete(m.sessions, id)
	return nil
}
