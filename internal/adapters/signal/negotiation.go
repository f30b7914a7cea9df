package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// handleNegotiation forwards offer, answer and ice-candidate frames to the
// addressed peer. The body is relayed as-is.
func (ctl *SignalWSController) handleNegotiation(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.NegotiationPayload
	if err := env.Bind(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad negotiation payload")
		ctl.replyErr(c, err)
		return
	}
	if !ctl.Relay.Route(env.Type, p.Body(env.Type), id, p.To) {
		log.Debug().Str("module", "signal").Str("conn", string(id)).Str("to", string(p.To)).
			Str("type", string(env.Type)).Msg("negotiation not delivered")
	}
}
