// Package session keeps one Composer, and so one graph cache, per viewer
// session.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/ledgerview/pkg/compose"
)

// DefaultID names the session used when a request carries none.
const DefaultID = "default"

// Factory builds the Composer for a new session.
type Factory func() (*compose.Composer, error)

// Session is one isolated view of the ledger.
type Session struct {
	ID        string
	CreatedAt time.Time
	Composer  *compose.Composer
}

// Registry holds the live sessions. Sessions live until deleted.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	factory  Factory
}

// NewRegistry creates a registry holding only the default session.
func NewRegistry(factory Factory) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("session factory must not be nil")
	}

	r := &Registry{
		sessions: make(map[string]*Session),
		factory:  factory,
	}

	def, err := r.newSession(DefaultID)
	if err != nil {
		return nil, err
	}
	r.sessions[DefaultID] = def

	return r, nil
}

func (r *Registry) newSession(id string) (*Session, error) {
	c, err := r.factory()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, CreatedAt: time.Now(), Composer: c}, nil
}

// Create starts a session with a fresh cache.
func (r *Registry) Create() (*Session, error) {
	s, err := r.newSession(uuid.NewString())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	return s, ok
}

// GetOrDefault returns the session with id, or the default session when id
// is empty or unknown.
func (r *Registry) GetOrDefault(id string) *Session {
	if s, ok := r.Get(id); ok {
		return s
	}
	return r.Default()
}

func (r *Registry) Default() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[DefaultID]
}

// Delete removes a session. The default session cannot be deleted.
func (r *Registry) Delete(id string) bool {
	if id == DefaultID {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len counts live sessions, the default one included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
