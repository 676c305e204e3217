// Package session owns the process-wide identity state: which user, if
// any, this storefront profile is signed in as. Identity transitions
// drive which cart persistence path is active.
package session

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Identity is the authenticated principal. The zero value is anonymous.
type Identity struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

func (i Identity) Authenticated() bool {
	return i.Token != ""
}

// Event marks an identity transition.
type Event int

const (
	LoggedIn Event = iota
	LoggedOut
)

func (e Event) String() string {
	if e == LoggedIn {
		return "logged-in"
	}
	return "logged-out"
}

// Manager holds the identity record for this profile. The record is
// persisted on device so an authenticated session survives restarts;
// persistence is best-effort, in the same spirit as the cart cache.
type Manager struct {
	mu        sync.RWMutex
	path      string
	log       logrus.FieldLogger
	current   Identity
	listeners []func(Event, Identity)
}

// NewManager loads any persisted identity. An empty path disables
// persistence (used by tests).
func NewManager(path string, log logrus.FieldLogger) *Manager {
	m := &Manager{path: path, log: log}
	m.current = m.load()
	return m
}

func (m *Manager) load() Identity {
	if m.path == "" {
		return Identity{}
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.WithField("error", err).Warn("identity record unreadable, starting anonymous")
		}
		return Identity{}
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		m.log.WithField("error", err).Warn("identity record corrupted, starting anonymous")
		return Identity{}
	}
	return id
}

func (m *Manager) persist(id Identity) {
	if m.path == "" {
		return
	}
	if !id.Authenticated() {
		if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
			m.log.WithField("error", err).Warn("identity record remove failed")
		}
		return
	}
	data, err := json.Marshal(id)
	if err != nil {
		m.log.WithField("error", err).Warn("identity record encode failed")
		return
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		m.log.WithField("error", err).Warn("identity record write failed")
		return
	}
	if err := os.Rename(tmp, m.path); err != nil {
		m.log.WithField("error", err).Warn("identity record replace failed")
	}
}

func (m *Manager) Current() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.Authenticated()
}

// Token is the api.TokenSource for the remote store clients.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Token
}

// Subscribe registers a listener for identity transitions. Listeners
// run synchronously after the transition commits.
func (m *Manager) Subscribe(fn func(Event, Identity)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Login installs the identity and reports whether this was a real
// anonymous-to-authenticated transition. Listeners fire only on such a
// transition, so downstream reconciliation runs once even if a fresh
// token is installed mid-session; callers use the same signal to decide
// between merging a guest cart and adopting the remote one.
func (m *Manager) Login(id Identity) bool {
	m.mu.Lock()
	wasAuthenticated := m.current.Authenticated()
	m.current = id
	m.persist(id)
	listeners := append([]func(Event, Identity){}, m.listeners...)
	m.mu.Unlock()

	if wasAuthenticated {
		return false
	}
	for _, fn := range listeners {
		fn(LoggedIn, id)
	}
	return true
}

// Logout clears the identity. A no-op for an anonymous session.
func (m *Manager) Logout() {
	m.mu.Lock()
	wasAuthenticated := m.current.Authenticated()
	m.current = Identity{}
	m.persist(Identity{})
	listeners := append([]func(Event, Identity){}, m.listeners...)
	m.mu.Unlock()

	if !wasAuthenticated {
		return
	}
	for _, fn := range listeners {
		fn(LoggedOut, Identity{})
	}
}
