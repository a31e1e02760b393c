package server

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HandlerState is one connection handler phase.
type HandlerState string

const (
	StateAwaitInput HandlerState = "await_input"
	StateProcessing HandlerState = "processing"
	StateClosing    HandlerState = "closing"
)

// Session is the observable record of one live connection.
type Session struct {
	ID         string       `json:"id"`
	RemoteAddr string       `json:"remote_addr"`
	StartedAt  time.Time    `json:"started_at"`
	Queries    uint64       `json:"queries"`
	State      HandlerState `json:"state"`
}

type sessionEntry struct {
	meta Session
	conn net.Conn
}

// Registry tracks live sessions. Handlers only touch their own entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*sessionEntry)}
}

// Open registers conn and returns its session id.
func (r *Registry) Open(conn net.Conn) string {
	id := uuid.NewString()
	entry := &sessionEntry{
		meta: Session{
			ID:         id,
			RemoteAddr: conn.RemoteAddr().String(),
			StartedAt:  time.Now(),
			State:      StateAwaitInput,
		},
		conn: conn,
	}
	r.mu.Lock()
	r.entries[id] = entry
	r.mu.Unlock()
	return id
}

func (r *Registry) SetState(id string, state HandlerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[id]; ok {
		entry.meta.State = state
	}
}

// Answered counts one query that received a response.
func (r *Registry) Answered(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[id]; ok {
		entry.meta.Queries++
	}
}

// Remove deregisters id and returns its final record.
func (r *Registry) Remove(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return Session{}, false
	}
	delete(r.entries, id)
	return entry.meta, true
}

func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return Session{}, false
	}
	return entry.meta, true
}

// Snapshot returns all live sessions, oldest first.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	out := make([]Session, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.meta)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CloseAll force-closes every registered connection. Entries stay until
// their handlers observe the closed connection and call Remove.
func (r *Registry) CloseAll() int {
	r.mu.RLock()
	conns := make([]net.Conn, 0, len(r.entries))
	for _, entry := range r.entries {
		conns = append(conns, entry.conn)
	}
	r.mu.RUnlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
	return len(conns)
}
