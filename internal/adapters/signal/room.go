package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

func (ctl *SignalWSController) handleJoin(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.JoinRoomPayload
	if err := env.Bind(&p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad join payload")
		ctl.replyErr(c, err)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", string(p.RoomID)).
		Str("user", string(p.UserID)).Str("role", string(p.Role)).Msg("join")
	ctl.replyErr(c, ctl.Relay.Join(id, p.RoomID, p.Identity))
}

// handleLeave leaves the current room; the socket stays open.
func (ctl *SignalWSController) handleLeave(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.RoomPayload
	if err := env.Bind(&p); err != nil {
		ctl.replyErr(c, err)
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("room", string(p.RoomID)).Msg("leave")
	ctl.Relay.Leave(id, p.RoomID)
}
