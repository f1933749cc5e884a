package domain

import (
	"strings"
	"sync"
)

// Registry is the process-wide table mapping room identifiers to sessions.
// It owns creation-on-first-join and deletion-on-empty; it knows nothing
// about connections. Identifiers are case-sensitive.
type Registry struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating a waiting session with a
// text drawn from the supplier when none exists. Creation is atomic per
// identifier: two concurrent callers never observe two distinct sessions.
func (r *Registry) GetOrCreate(id string, supplier TextSupplier) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		return session
	}
	session := NewSession(id, supplier)
	r.sessions[id] = session
	return session
}

// Get looks a session up without creating it.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// RemoveIfEmpty drops the session iff its roster is currently empty. The
// count is re-checked under the registry lock, so a join that slipped in
// after the last leave keeps its freshly repopulated session. Idempotent.
func (r *Registry) RemoveIfEmpty(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return
	}
	if session.PlayerCount() == 0 {
		delete(r.sessions, id)
	}
}

// List returns a snapshot of every active session, sorted by nothing in
// particular; callers needing stable output sort the result.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(sessions))
	for _, session := range sessions {
		snapshots = append(snapshots, session.Snapshot())
	}
	return snapshots
}

// NormalizeRoomID trims surrounding whitespace from a client-supplied room
// identifier. Identifiers stay case-sensitive.
func NormalizeRoomID(raw string) string {
	return strings.TrimSpace(raw)
}
