package signal

import (
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

// ClientTokenKey is the gin context key holding the browser session token.
const ClientTokenKey = "client_token"

func (ctl *SignalWSController) handleWhoAmI(id domain.ConnID, c *WsSignalConn) {
	ctl.sendJSON(c, protocol.WhoAmI, ctl.Relay.WhoAmI(id))
}
