package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// Lifecycle is the only writer of both registries.
type Lifecycle struct {
	conns    *core.ConnectionRegistry
	rooms    *core.RoomRegistry
	out      outbox
	dispatch Dispatcher
	now      func() time.Time
}

// Join moves id into roomID. A connection already in a room leaves it first.
// The participant is inserted before any message goes out; the joiner's reply
// lists only the members that were there before it.
func (l Lifecycle) Join(id domain.ConnID, roomID domain.RoomID, who domain.Identity) {
	if cur, ok := l.conns.Lookup(id); ok {
		log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Str("from_room", string(cur.RoomID)).Str("room", string(roomID)).Msg("switching rooms")
		l.Leave(id, cur.RoomID)
	}

	room := l.rooms.GetOrCreate(roomID)
	existing := room.Others(id)
	room.Add(domain.NewParticipant(id, who, l.now().UTC()))
	l.conns.Register(id, who, roomID)

	l.out.send(id, protocol.RoomJoined, protocol.RoomJoinedPayload{RoomID: roomID, Participants: existing})
	l.dispatch.Broadcast(roomID, protocol.UserJoined, protocol.UserJoinedPayload{ConnectionID: id, Identity: who}, id)
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Str("room", string(roomID)).Int("count", room.Len()).Msg("joined")
}

// Leave is shared by explicit leave-room and transport loss. It reports
// whether id was in a room.
func (l Lifecycle) Leave(id domain.ConnID, roomID domain.RoomID) bool {
	conn, ok := l.conns.Lookup(id)
	if !ok {
		return false
	}
	if roomID != "" && roomID != conn.RoomID {
		log.Warn().Str("module", "app.lifecycle").Str("conn", string(id)).Str("asked", string(roomID)).Str("room", string(conn.RoomID)).Msg("leave for another room, using registered one")
	}
	roomID = conn.RoomID

	if room, ok := l.rooms.Get(roomID); ok {
		room.Remove(id)
	}
	l.conns.Remove(id)

	who := conn.Identity
	l.dispatch.Broadcast(roomID, protocol.UserLeft, protocol.UserLeftPayload{ConnectionID: id, Identity: &who}, id)
	l.rooms.DeleteIfEmpty(roomID)
	log.Info().Str("module", "app.lifecycle").Str("conn", string(id)).Str("room", string(roomID)).Msg("left")
	return true
}

// Disconnect runs the leave path and forgets the transport.
func (l Lifecycle) Disconnect(id domain.ConnID) {
	l.Leave(id, "")
	l.conns.Unbind(id)
}
