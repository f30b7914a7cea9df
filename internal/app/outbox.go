package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// outbox pushes encoded events onto connection send queues.
type outbox struct {
	conns  *core.ConnectionRegistry
	policy Policy
}

func (o outbox) send(to domain.ConnID, t protocol.EventType, payload any) bool {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.outbox").Str("type", string(t)).Msg("encode")
		return false
	}
	return o.deliver(to, t, frame)
}

func (o outbox) deliver(to domain.ConnID, t protocol.EventType, frame core.Frame) bool {
	sig, ok := o.conns.Signal(to)
	if !ok {
		log.Debug().Str("module", "app.outbox").Str("conn", string(to)).Str("type", string(t)).Msg("no transport, dropped")
		return false
	}
	if err := sig.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.outbox").Str("conn", string(to)).Str("type", string(t)).Msg("send failed")
		if errors.Is(err, core.ErrBackpressure) && o.policy.OnBackPressure(to) == KickMember {
			o.conns.Cancel(to)
		}
		return false
	}
	return true
}
