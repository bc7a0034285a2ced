package identity

import (
	"sync"
	"time"
)

// Session is an authenticated GoTrue session with its resolved identity.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Identity     Identity
}

// Expired reports whether the session's access token has expired.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SessionCache is a process-local session store keyed by auth identity.
// Concurrent writers follow last-writer-wins; there is no cross-process
// coordination.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionCache creates an empty cache.
func NewSessionCache() *SessionCache {
	return &SessionCache{sessions: make(map[string]*Session)}
}

// Store saves or replaces the session for its auth identity.
func (c *SessionCache) Store(session *Session) {
	if session == nil || session.Identity.AuthID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.Identity.AuthID] = session
}

// Get returns the cached session for an auth identity, or nil. Expired
// sessions are evicted on access.
func (c *SessionCache) Get(authID string) *Session {
	c.mu.RLock()
	session, ok := c.sessions[authID]
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if session.Expired() {
		c.Remove(authID)
		return nil
	}
	return session
}

// Remove evicts the session for an auth identity.
func (c *SessionCache) Remove(authID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, authID)
}

// Len returns the number of cached sessions.
func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
