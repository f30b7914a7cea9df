package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// Dispatcher fans an event out to every room member except the sender.
type Dispatcher struct {
	rooms *core.RoomRegistry
	out   outbox
}

// Broadcast returns the number of members the event was queued for.
func (d Dispatcher) Broadcast(roomID domain.RoomID, t protocol.EventType, payload any, exclude domain.ConnID) int {
	room, ok := d.rooms.Get(roomID)
	if !ok {
		return 0
	}
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("type", string(t)).Msg("encode")
		return 0
	}
	sent := 0
	for _, p := range room.Others(exclude) {
		if d.out.deliver(p.ConnectionID, t, frame) {
			sent++
		}
	}
	log.Debug().Str("module", "app.dispatcher").Str("room", string(roomID)).Str("type", string(t)).Str("from", string(exclude)).Int("sent_to", sent).Msg("broadcast result")
	return sent
}
