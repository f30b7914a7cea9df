package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/domain"
)

// Connection is the registry view of one transport session.
// Identity and RoomID are only meaningful while Joined is true.
type Connection struct {
	ID          domain.ConnID
	ClientToken string
	Identity    domain.Identity
	RoomID      domain.RoomID
	Joined      bool
	Signal      SignalConnection
}

type connEntry struct {
	conn   Connection
	cancel context.CancelFunc
}

// ConnectionRegistry maps a connection id to its transport and, once joined,
// to the identity and room it announced.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[domain.ConnID]*connEntry),
	}
}

// Bind records a freshly established transport session.
func (r *ConnectionRegistry) Bind(id domain.ConnID, token string, sig SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		conn:   Connection{ID: id, ClientToken: token, Signal: sig},
		cancel: cancel,
	}
	log.Debug().Str("module", "core.connections").Str("conn", string(id)).Msg("bound signal")
}

// Unbind forgets the transport session entirely.
func (r *ConnectionRegistry) Unbind(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Debug().Str("module", "core.connections").Str("conn", string(id)).Msg("unbind signal")
}

// Register associates identity and room with id. Unknown ids get an entry
// without a transport, which keeps the registry usable on its own.
func (r *ConnectionRegistry) Register(id domain.ConnID, who domain.Identity, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		e = &connEntry{conn: Connection{ID: id}}
		r.conns[id] = e
	}
	e.conn.Identity = who
	e.conn.RoomID = roomID
	e.conn.Joined = true
	log.Info().Str("module", "core.connections").Str("conn", string(id)).Str("room", string(roomID)).Str("user", string(who.UserID)).Msg("registered")
}

// Lookup returns the connection only while it is joined to a room.
func (r *ConnectionRegistry) Lookup(id domain.ConnID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || !e.conn.Joined {
		return Connection{}, false
	}
	return e.conn, true
}

// Remove clears the room association. The transport binding survives so the
// same socket may join again. Unknown ids are ignored.
func (r *ConnectionRegistry) Remove(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return
	}
	if e.conn.Signal == nil {
		delete(r.conns, id)
	} else {
		e.conn.Identity = domain.Identity{}
		e.conn.RoomID = ""
		e.conn.Joined = false
	}
	log.Info().Str("module", "core.connections").Str("conn", string(id)).Msg("removed room association")
}

// Signal returns the transport of any bound connection, joined or not.
func (r *ConnectionRegistry) Signal(id domain.ConnID) (SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.conn.Signal == nil {
		return nil, false
	}
	return e.conn.Signal, true
}

// Cancel stops the transport session of id. The adapter then runs the
// disconnect path on its own goroutine.
func (r *ConnectionRegistry) Cancel(id domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.cancel != nil {
		e.cancel()
	}
	log.Info().Str("module", "core.connections").Str("conn", string(id)).Msg("canceled session")
	return true
}

// Joined counts connections currently registered in a room.
func (r *ConnectionRegistry) Joined() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.conns {
		if e.conn.Joined {
			n++
		}
	}
	return n
}

// Bound counts live transport sessions.
func (r *ConnectionRegistry) Bound() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.conns {
		if e.conn.Signal != nil {
			n++
		}
	}
	return n
}
