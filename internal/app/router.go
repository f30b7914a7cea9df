package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// Router forwards offer, answer and ice-candidate to exactly one connection.
// It does not decide who offers and never looks inside the body.
type Router struct {
	conns *core.ConnectionRegistry
	out   outbox
}

// Route returns false when the message was dropped. Unknown targets are not
// reported back to the sender.
func (r Router) Route(kind protocol.EventType, body json.RawMessage, from, to domain.ConnID) bool {
	if !protocol.IsNegotiation(kind) {
		return false
	}
	if _, ok := r.conns.Lookup(to); !ok {
		log.Debug().Str("module", "app.router").Str("type", string(kind)).Str("from", string(from)).Str("to", string(to)).Msg("target not registered, dropped")
		return false
	}
	var who *domain.Identity
	if src, ok := r.conns.Lookup(from); ok {
		who = &src.Identity
	}
	log.Debug().Str("module", "app.router").Str("type", string(kind)).Str("from", string(from)).Str("to", string(to)).Msg("relay")
	return r.out.send(to, kind, protocol.NewRelayed(kind, body, from, who))
}
