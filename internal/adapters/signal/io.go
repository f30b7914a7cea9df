package signal

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

func (ctl *SignalWSController) writePump(ctx context.Context, id domain.ConnID, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.timing.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(ctl.timing.writeWait))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.timing.writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.timing.writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, id domain.ConnID, c *WsSignalConn) {
	defer log.Debug().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")

	c.conn.SetReadLimit(ctl.timing.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.timing.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.timing.pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(id, c, data)
		}
	}
}

func (ctl *SignalWSController) handleFrame(id domain.ConnID, c *WsSignalConn, data []byte) {
	if !ctl.limiter.Allow(id) {
		ctl.sendError(c, protocol.CodeRateLimited, "too many messages")
		return
	}
	env, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad frame")
		ctl.sendError(c, protocol.CodeBadPayload, err.Error())
		return
	}

	switch env.Type {
	case protocol.JoinRoom:
		ctl.handleJoin(id, c, env)
	case protocol.LeaveRoom:
		ctl.handleLeave(id, c, env)
	case protocol.Offer, protocol.Answer, protocol.ICECandidate:
		ctl.handleNegotiation(id, c, env)
	case protocol.ToggleVideo, protocol.ToggleAudio:
		ctl.handleToggle(id, c, env)
	case protocol.StartScreenShare, protocol.StopScreenShare:
		ctl.handleScreenShare(id, c, env)
	case protocol.CallMessage:
		ctl.handleChat(id, c, env)
	case protocol.StartCall, protocol.EndCall:
		ctl.handleCall(id, c, env)
	case protocol.Ping:
		ctl.handlePing(c)
	case protocol.WhoAmI:
		ctl.handleWhoAmI(id, c)
	default:
		log.Warn().Str("module", "signal").Str("conn", string(id)).Str("type", string(env.Type)).Msg("unknown signal")
		ctl.sendError(c, protocol.CodeUnknownEvent, "unknown event "+string(env.Type))
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, t protocol.EventType, payload any) {
	b, err := protocol.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, code protocol.ErrorCode, msg string) {
	ctl.sendJSON(c, protocol.Error, protocol.ErrorPayload{Message: msg, Code: code})
}

// replyErr maps relay errors onto error events. Nil is a no-op.
func (ctl *SignalWSController) replyErr(c *WsSignalConn, err error) {
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		ctl.sendError(c, protocol.CodeValidationError, err.Error())
	case errors.Is(err, domain.ErrNotInRoom):
		ctl.sendError(c, protocol.CodeNotInRoom, err.Error())
	case errors.Is(err, protocol.ErrBadPayload):
		ctl.sendError(c, protocol.CodeBadPayload, err.Error())
	default:
		log.Error().Err(err).Str("module", "signal").Msg("unhandled relay error")
	}
}
