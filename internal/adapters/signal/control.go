package signal

import (
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, protocol.Pong, nil)
}

func (ctl *SignalWSController) handleToggle(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.TogglePayload
	if err := env.Bind(&p); err != nil {
		ctl.replyErr(c, err)
		return
	}
	_, err := ctl.Relay.Toggle(env.Type, id, p.RoomID, p.Enabled)
	ctl.replyErr(c, err)
}

func (ctl *SignalWSController) handleScreenShare(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.RoomPayload
	if err := env.Bind(&p); err != nil {
		ctl.replyErr(c, err)
		return
	}
	_, err := ctl.Relay.ScreenShare(id, p.RoomID, env.Type == protocol.StartScreenShare)
	ctl.replyErr(c, err)
}

func (ctl *SignalWSController) handleChat(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.CallMessagePayload
	if err := env.Bind(&p); err != nil {
		ctl.replyErr(c, err)
		return
	}
	_, err := ctl.Relay.Chat(id, p.RoomID, p.Message)
	ctl.replyErr(c, err)
}

func (ctl *SignalWSController) handleCall(id domain.ConnID, c *WsSignalConn, env protocol.Envelope) {
	var p protocol.RoomPayload
	if err := env.Bind(&p); err != nil {
		ctl.replyErr(c, err)
		return
	}
	var err error
	if env.Type == protocol.StartCall {
		_, err = ctl.Relay.StartCall(id, p.RoomID)
	} else {
		_, err = ctl.Relay.EndCall(id, p.RoomID)
	}
	ctl.replyErr(c, err)
}
