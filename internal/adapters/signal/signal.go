package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/CallRelay/internal/app"
	"github.com/dkeye/CallRelay/internal/config"
	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
)

const (
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultSendBuffer = 64
	defaultReadLimit  = 64 * 1024
)

type timing struct {
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
	readLimit  int64
	sendBuffer int
}

func timingFrom(cfg *config.Config) timing {
	t := timing{
		writeWait:  cfg.WriteWait,
		pongWait:   cfg.PongWait,
		pingPeriod: cfg.PingPeriod,
		readLimit:  cfg.ReadLimit,
		sendBuffer: cfg.SendBuffer,
	}
	if t.writeWait <= 0 {
		t.writeWait = defaultWriteWait
	}
	if t.pongWait <= 0 {
		t.pongWait = defaultPongWait
	}
	if t.pingPeriod <= 0 || t.pingPeriod >= t.pongWait {
		t.pingPeriod = t.pongWait * 9 / 10
	}
	if t.readLimit <= 0 {
		t.readLimit = defaultReadLimit
	}
	if t.sendBuffer <= 0 {
		t.sendBuffer = defaultSendBuffer
	}
	return t
}

type SignalWSController struct {
	Relay    *app.Relay
	limiter  *ConnRateLimiter
	upgrader websocket.Upgrader
	timing   timing
}

func NewSignalWSController(relay *app.Relay, cfg *config.Config) *SignalWSController {
	ctl := &SignalWSController{
		Relay:   relay,
		limiter: NewConnRateLimiter(cfg.MessageRate, cfg.MessageBurst),
		timing:  timingFrom(cfg),
	}
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg),
	}
	return ctl
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browsers from the configured origins.
func originChecker(cfg *config.Config) func(r *http.Request) bool {
	if cfg.AllowsAnyOrigin() {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(cfg.AllowedOrigins, origin)
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnectionClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

// HandleSignal upgrades the request and serves the socket until either side
// goes away. It returns after the connection has been fully disconnected.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	id := domain.ConnID(uuid.NewString())
	token := c.GetString(ClientTokenKey)

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("client", token).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.timing.sendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctl.Relay.Connect(id, token, conn, cancel)

	var wg conc.WaitGroup
	wg.Go(func() { ctl.writePump(ctx, id, conn) })
	wg.Go(func() {
		defer cancel()
		ctl.readPump(ctx, id, conn)
	})
	if r := wg.WaitAndRecover(); r != nil {
		log.Error().Str("module", "signal").Str("conn", string(id)).Str("panic", r.String()).Msg("pump panicked")
	}

	conn.Close()
	ctl.Relay.Disconnect(id)
	ctl.limiter.Forget(id)
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("WS connection closed")
}
