package negotiation

import (
	"sync"
	"time"

	"agrideal/pricing"
)

// Directory maps a negotiation id (the parcel under negotiation) to its
// live session. Sessions are created lazily on the first join and
// dropped once both endpoints have disconnected; proposal history does
// not carry over to a later session under the same id.
type Directory struct {
	arbiter pricing.Arbiter
	store   TranscriptStore
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewDirectory wires the arbiter and transcript store shared by all
// sessions. arbitrationTimeout bounds one arbitration call; store may
// be nil to skip transcript persistence.
func NewDirectory(arbiter pricing.Arbiter, store TranscriptStore, arbitrationTimeout time.Duration) *Directory {
	return &Directory{
		arbiter:  arbiter,
		store:    store,
		timeout:  arbitrationTimeout,
		sessions: make(map[string]*Session),
	}
}

// Join attaches a connection to the session for id, creating the
// session if needed. A session that already reached Closed is replaced
// by a fresh one.
func (d *Directory) Join(id string, role Role, c Conn) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[id]
	if !ok || s.State() == StateClosed {
		s = newSession(id, d.arbiter, d.store, d.timeout)
		d.sessions[id] = s
	}
	if err := s.Join(role, c); err != nil {
		return nil, err
	}
	return s, nil
}

// Leave detaches a connection and removes the session once it closes.
func (d *Directory) Leave(id string, role Role, c Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[id]
	if !ok {
		return
	}
	if s.Leave(role, c) {
		delete(d.sessions, id)
	}
}

// Get returns the live session for id, if any.
func (d *Directory) Get(id string) (*Session, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[id]
	return s, ok
}

// Len reports the number of live sessions.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
