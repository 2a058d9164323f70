package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mentichat/internal/router"
)

// Registry hands out independent sessions keyed by UUID. The lock guards only
// the map; each Controller serializes its own submissions.
type Registry struct {
	mu       sync.RWMutex
	router   router.ChatRouter
	sessions map[string]*Controller
	limit    int
}

// NewRegistry creates a registry whose sessions share r. limit bounds the
// number of live sessions; zero means unbounded.
func NewRegistry(r router.ChatRouter, limit int) *Registry {
	return &Registry{
		router:   r,
		sessions: make(map[string]*Controller),
		limit:    limit,
	}
}

// Create starts a new session.
func (reg *Registry) Create() (*Controller, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.limit > 0 && len(reg.sessions) >= reg.limit {
		return nil, fmt.Errorf("session limit of %d reached", reg.limit)
	}
	c := NewController(uuid.New().String(), reg.router)
	reg.sessions[c.ID()] = c
	return c, nil
}

// Get looks up a session by id.
func (reg *Registry) Get(id string) (*Controller, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	c, ok := reg.sessions[id]
	return c, ok
}

// Delete ends a session. Unknown ids are ignored.
func (reg *Registry) Delete(id string) {
	reg.mu.Lock()
	delete(reg.sessions, id)
	reg.mu.Unlock()
}

// Len returns the number of live sessions.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}
