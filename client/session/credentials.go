package session

import (
	"sync"

	"github.com/atikur-web-dev/shopeasy/client/localstore"
	"github.com/atikur-web-dev/shopeasy/internal/domain"
)

// Credentials is the single authority on whether a session is active. It
// mirrors the durable token/user pair in memory and is the only writer of
// that pair: the two are always committed or cleared together.
type Credentials struct {
	store *localstore.Store

	mu    sync.RWMutex
	token string
	user  *domain.User
}

// NewCredentials creates a credential cell backed by the given store. The
// durable pair, if any, is loaded into memory; a corrupt or partial pair on
// disk is discarded.
func NewCredentials(store *localstore.Store) (*Credentials, error) {
	c := &Credentials{store: store}

	rec, err := store.LoadSession()
	if err != nil {
		return nil, err
	}
	if rec != nil {
		c.token = rec.Token
		c.user = rec.User
	}
	return c, nil
}

// Set atomically commits the token/user pair to durable storage and memory.
// The in-memory state only changes after the durable write succeeds.
func (c *Credentials) Set(token string, user *domain.User) error {
	if err := c.store.SaveSession(token, user); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = token
	c.user = user
	c.mu.Unlock()
	return nil
}

// Clear removes the pair from durable storage and memory. Clearing an
// already-empty cell is a no-op.
func (c *Credentials) Clear() error {
	if err := c.store.ClearSession(); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()
	return nil
}

// Token returns the current bearer token, or "" when no session is active.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns the cached profile snapshot, or nil when no session is active.
func (c *Credentials) User() *domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// IsAuthenticated reports whether both token and user are set. It is derived
// on every call, never cached, so the two can never be observed drifting.
func (c *Credentials) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != "" && c.user != nil
}

// refreshUser updates the cached profile snapshot without touching the token.
// Only valid while a session is active.
func (c *Credentials) refreshUser(user *domain.User) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" || user == nil {
		return nil
	}
	return c.Set(token, user)
}
