// Package registry holds the server's shared state: the player registry
// mapping names to live sessions and the room registry seating players into
// two-seat rooms. Both serialize every operation on an internal mutex; the
// session and monitor layers never see partial state.
package registry

import (
	"errors"
	"sync"
	"time"
)

// Session is the slice of the network session the registry needs. The
// concrete type lives in the server package; keeping an interface here keeps
// the registry free of network imports.
type Session interface {
	ID() uint32
	Send(data []byte) error
	Close() error
}

// Player registry errors.
var (
	ErrNameTaken    = errors.New("registry: name already taken")
	ErrSessionBound = errors.New("registry: session already owns a name")
	ErrNotDetached  = errors.New("registry: player not detached")
)

// PlayerState tags a record as attached to a live session or detached and
// waiting out its reconnection window.
type PlayerState int

const (
	StateAttached PlayerState = iota
	StateDetached
)

type playerRecord struct {
	name        string
	session     Session
	state       PlayerState
	room        string
	detachStart time.Time
}

// PlayerRegistry owns every player record. A record is created by Attach,
// survives detach/reattach cycles, and disappears only through Remove. Ping
// timestamps live under their own mutex so the heartbeat hot path does not
// contend with attach and room bookkeeping.
type PlayerRegistry struct {
	mu        sync.Mutex
	players   map[string]*playerRecord
	bySession map[uint32]string

	pingMu sync.Mutex
	pings  map[string]time.Time
}

// NewPlayerRegistry returns an empty registry.
func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		players:   make(map[string]*playerRecord),
		bySession: make(map[uint32]string),
		pings:     make(map[string]time.Time),
	}
}

// Attach creates a new attached record for name owned by session. A name
// that exists in any state is taken; reclaiming a detached name goes through
// Reattach. A session that already owns a name cannot take a second one.
func (r *PlayerRegistry) Attach(name string, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[name]; exists {
		return ErrNameTaken
	}

	if _, bound := r.bySession[session.ID()]; bound {
		return ErrSessionBound
	}

	r.players[name] = &playerRecord{
		name:    name,
		session: session,
		state:   StateAttached,
	}
	r.bySession[session.ID()] = name

	r.touch(name)
	return nil
}

// Reattach binds a new session to a detached record, clearing its detach
// clock. Unknown and attached names fail with ErrNotDetached.
func (r *PlayerRegistry) Reattach(name string, session Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[name]
	if !exists || p.state != StateDetached {
		return ErrNotDetached
	}

	if _, bound := r.bySession[session.ID()]; bound {
		return ErrSessionBound
	}

	p.session = session
	p.state = StateAttached
	p.detachStart = time.Time{}
	r.bySession[session.ID()] = name

	r.touch(name)
	return nil
}

// Detach drops the record's session and starts its reconnection window. The
// record and its room seat stay put. Idempotent on detached records; no-op
// on unknown names.
func (r *PlayerRegistry) Detach(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[name]
	if !exists || p.state == StateDetached {
		return
	}

	if p.session != nil {
		delete(r.bySession, p.session.ID())
	}

	p.session = nil
	p.state = StateDetached
	p.detachStart = time.Now()
}

// Remove erases the record entirely, freeing the name.
func (r *PlayerRegistry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, exists := r.players[name]; exists && p.session != nil {
		delete(r.bySession, p.session.ID())
	}

	delete(r.players, name)

	r.pingMu.Lock()
	delete(r.pings, name)
	r.pingMu.Unlock()
}

// BySession resolves the name owned by a session id, or "".
func (r *PlayerRegistry) BySession(id uint32) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.bySession[id]
}

// SessionFor returns the live session of an attached player, or nil. The
// dispatch layer drops frames for detached players on this nil.
func (r *PlayerRegistry) SessionFor(name string) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[name]
	if !exists || p.state != StateAttached {
		return nil
	}

	return p.session
}

// IsAttached reports whether name exists and has a live session.
func (r *PlayerRegistry) IsAttached(name string) bool {
	return r.SessionFor(name) != nil
}

// SetRoom records the room the player is seated in.
func (r *PlayerRegistry) SetRoom(name, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, exists := r.players[name]; exists {
		p.room = roomID
	}
}

// ClearRoom puts the player back in the lobby.
func (r *PlayerRegistry) ClearRoom(name string) {
	r.SetRoom(name, "")
}

// RoomOf returns the player's room id, or "" for the lobby and for unknown
// names.
func (r *PlayerRegistry) RoomOf(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, exists := r.players[name]; exists {
		return p.room
	}

	return ""
}

// UpdatePing stamps the player's liveness clock. No-op on unknown names.
func (r *PlayerRegistry) UpdatePing(name string) {
	r.mu.Lock()
	_, exists := r.players[name]
	r.mu.Unlock()

	if exists {
		r.touch(name)
	}
}

func (r *PlayerRegistry) touch(name string) {
	r.pingMu.Lock()
	r.pings[name] = time.Now()
	r.pingMu.Unlock()
}

// ScanTimedOut returns the attached names whose last ping is older than
// threshold.
func (r *PlayerRegistry) ScanTimedOut(threshold time.Duration) []string {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pingMu.Lock()
	defer r.pingMu.Unlock()

	var out []string
	for name, p := range r.players {
		if p.state != StateAttached {
			continue
		}

		if last, ok := r.pings[name]; ok && now.Sub(last) > threshold {
			out = append(out, name)
		}
	}

	return out
}

// ScanExpiredDetached returns the detached names whose reconnection window
// of threshold has run out.
func (r *PlayerRegistry) ScanExpiredDetached(threshold time.Duration) []string {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for name, p := range r.players {
		if p.state == StateDetached && now.Sub(p.detachStart) > threshold {
			out = append(out, name)
		}
	}

	return out
}

// Names returns every registered name, attached or not.
func (r *PlayerRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.players))
	for name := range r.players {
		names = append(names, name)
	}

	return names
}

// Len returns the number of player records.
func (r *PlayerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.players)
}
