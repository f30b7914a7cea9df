package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// timestampLayout matches what browsers produce with Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Options struct {
	Policy     Policy
	StrictJoin bool
	Now        func() time.Time
}

// Relay is the server context handed to every transport handler. It owns both
// registries and runs each inbound event to completion under one lock.
type Relay struct {
	mu sync.Mutex

	Conns *core.ConnectionRegistry
	Rooms *core.RoomRegistry

	out        outbox
	router     Router
	dispatch   Dispatcher
	lifecycle  Lifecycle
	strictJoin bool
	now        func() time.Time
}

func NewRelay(conns *core.ConnectionRegistry, rooms *core.RoomRegistry, opts Options) *Relay {
	if opts.Policy == nil {
		opts.Policy = DropPolicy{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	out := outbox{conns: conns, policy: opts.Policy}
	dispatch := Dispatcher{rooms: rooms, out: out}
	return &Relay{
		Conns:      conns,
		Rooms:      rooms,
		out:        out,
		router:     Router{conns: conns, out: out},
		dispatch:   dispatch,
		lifecycle:  Lifecycle{conns: conns, rooms: rooms, out: out, dispatch: dispatch, now: opts.Now},
		strictJoin: opts.StrictJoin,
		now:        opts.Now,
	}
}

// Connect binds a new transport session and tells the client its id.
func (rl *Relay) Connect(id domain.ConnID, token string, sig core.SignalConnection, cancel context.CancelFunc) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.Conns.Bind(id, token, sig, cancel)
	rl.out.send(id, protocol.Connected, protocol.ConnectedPayload{ConnectionID: id})
}

// Disconnect is called once the transport is gone.
func (rl *Relay) Disconnect(id domain.ConnID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.lifecycle.Disconnect(id)
}

// Join returns domain.ErrValidation only when strict joins are enabled.
func (rl *Relay) Join(id domain.ConnID, roomID domain.RoomID, who domain.Identity) error {
	if rl.strictJoin {
		if err := who.Validate(); err != nil {
			return err
		}
		if roomID == "" {
			return domain.ErrValidation
		}
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.lifecycle.Join(id, roomID, who)
	return nil
}

// Leave acknowledges with a left event when id was in a room.
func (rl *Relay) Leave(id domain.ConnID, roomID domain.RoomID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cur, ok := rl.Conns.Lookup(id)
	if !ok {
		return false
	}
	rl.lifecycle.Leave(id, roomID)
	rl.out.send(id, protocol.Left, protocol.LeftPayload{RoomID: cur.RoomID})
	return true
}

func (rl *Relay) Route(kind protocol.EventType, body json.RawMessage, from, to domain.ConnID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.router.Route(kind, body, from, to)
}

// Toggle relays toggle-video or toggle-audio as its peer-* counterpart.
func (rl *Relay) Toggle(kind protocol.EventType, from domain.ConnID, roomID domain.RoomID, enabled bool) (int, error) {
	out := protocol.PeerToggleVideo
	if kind == protocol.ToggleAudio {
		out = protocol.PeerToggleAudio
	}
	return rl.broadcast(from, roomID, out, func(*domain.Identity) any {
		return protocol.PeerTogglePayload{From: from, Enabled: enabled}
	})
}

func (rl *Relay) ScreenShare(from domain.ConnID, roomID domain.RoomID, started bool) (int, error) {
	out := protocol.PeerScreenShareStopped
	if started {
		out = protocol.PeerScreenShareStarted
	}
	return rl.broadcast(from, roomID, out, func(who *domain.Identity) any {
		return protocol.PeerEvent{From: from, FromIdentity: who}
	})
}

// Chat stamps the message with the server clock.
func (rl *Relay) Chat(from domain.ConnID, roomID domain.RoomID, message json.RawMessage) (int, error) {
	return rl.broadcast(from, roomID, protocol.CallMessage, func(who *domain.Identity) any {
		return protocol.ChatPayload{
			From:         from,
			FromIdentity: who,
			Message:      message,
			Timestamp:    rl.now().UTC().Format(timestampLayout),
		}
	})
}

func (rl *Relay) StartCall(from domain.ConnID, roomID domain.RoomID) (int, error) {
	return rl.broadcast(from, roomID, protocol.CallStarted, func(who *domain.Identity) any {
		return protocol.PeerEvent{From: from, FromIdentity: who}
	})
}

func (rl *Relay) EndCall(from domain.ConnID, roomID domain.RoomID) (int, error) {
	return rl.broadcast(from, roomID, protocol.CallEnded, func(who *domain.Identity) any {
		return protocol.PeerEvent{From: from, FromIdentity: who}
	})
}

// broadcast targets roomID, or the sender's own room when the client left it
// out. The sender never receives its own event.
func (rl *Relay) broadcast(from domain.ConnID, roomID domain.RoomID, t protocol.EventType, build func(*domain.Identity) any) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	var who *domain.Identity
	if cur, ok := rl.Conns.Lookup(from); ok {
		who = &cur.Identity
		if roomID == "" {
			roomID = cur.RoomID
		}
	}
	if roomID == "" {
		return 0, domain.ErrNotInRoom
	}
	n := rl.dispatch.Broadcast(roomID, t, build(who), from)
	log.Debug().Str("module", "app.relay").Str("conn", string(from)).Str("room", string(roomID)).Str("type", string(t)).Int("sent_to", n).Msg("room event")
	return n, nil
}

func (rl *Relay) WhoAmI(id domain.ConnID) protocol.WhoAmIPayload {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	out := protocol.WhoAmIPayload{ConnectionID: id}
	if cur, ok := rl.Conns.Lookup(id); ok {
		out.Identity = &cur.Identity
		out.RoomID = cur.RoomID
	}
	return out
}

type Stats struct {
	ActiveRooms int
	ActiveUsers int
}

func (rl *Relay) Stats() Stats {
	return Stats{ActiveRooms: rl.Rooms.Count(), ActiveUsers: rl.Conns.Joined()}
}
