package session

import (
	"log/slog"
	"sync"

	"github.com/avasquez/eventdesk/internal/credential"
)

// Identity is the logged-in user scope. The zero value means logged out.
type Identity struct {
	UserID string
	Role   string
}

// Listener is notified whenever the active identity changes (login,
// logout, or switching accounts). It receives the new identity; a zero
// identity means logged out.
type Listener func(Identity)

// Manager owns the session credential and identity. It persists both in
// the system keyring and emits an explicit change event to subscribers,
// so consumers react to login/logout without polling.
type Manager struct {
	mu        sync.Mutex
	token     string
	identity  Identity
	listeners map[int]Listener
	nextID    int
	logger    *slog.Logger
}

// NewManager creates a session manager, restoring any persisted session
// from the keyring. Missing credentials simply mean logged out.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		listeners: make(map[int]Listener),
		logger:    logger,
	}

	token, err := credential.Get(credential.KeyToken)
	if err != nil {
		return m
	}
	userID, err := credential.Get(credential.KeyUserID)
	if err != nil || userID == "" {
		return m
	}
	role, _ := credential.Get(credential.KeyRole)

	m.token = token
	m.identity = Identity{UserID: userID, Role: role}
	return m
}

// Identity returns the currently active identity.
func (m *Manager) Identity() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// UserID returns the active user id, or "" when logged out.
func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity.UserID
}

// Token returns the current session credential. It is read fresh on every
// call, so it is suitable as an api.TokenFunc and as the push channel's
// connect-time credential source.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// LoggedIn reports whether a session is active.
func (m *Manager) LoggedIn() bool {
	return m.UserID() != ""
}

// Login stores the issued credential and identity, persists them to the
// keyring, and notifies subscribers. Keyring failures are logged and do
// not block the in-memory session.
func (m *Manager) Login(token, role, userID string) {
	m.mu.Lock()
	m.token = token
	m.identity = Identity{UserID: userID, Role: role}
	id := m.identity
	m.mu.Unlock()

	if err := credential.Set(credential.KeyToken, token); err != nil {
		m.logger.Warn("persisting session token failed", "error", err)
	}
	if err := credential.Set(credential.KeyUserID, userID); err != nil {
		m.logger.Warn("persisting session user id failed", "error", err)
	}
	if err := credential.Set(credential.KeyRole, role); err != nil {
		m.logger.Warn("persisting session role failed", "error", err)
	}

	m.notify(id)
}

// Logout clears the session and removes persisted credentials. In-memory
// notification state for the identity is torn down by subscribers; the
// durable cache stays on disk until explicitly cleared.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.identity = Identity{}
	m.mu.Unlock()

	for _, key := range []string{
		credential.KeyToken, credential.KeyUserID, credential.KeyRole,
	} {
		if err := credential.Delete(key); err != nil {
			m.logger.Debug("removing credential failed", "key", key, "error", err)
		}
	}

	m.notify(Identity{})
}

// Subscribe registers a listener for identity changes and returns a
// function that removes exactly that listener.
func (m *Manager) Subscribe(fn Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// notify calls every listener outside the lock. Listener panics are
// isolated so one faulty subscriber cannot block the others.
func (m *Manager) notify(id Identity) {
	m.mu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("session listener panicked", "panic", r)
				}
			}()
			fn(id)
		}()
	}
}
