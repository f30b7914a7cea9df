package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/CallRelay/internal/app"
	"github.com/dkeye/CallRelay/internal/config"
	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

func testConfig() *config.Config {
	return &config.Config{
		PingPeriod:     time.Second,
		PongWait:       2 * time.Second,
		WriteWait:      time.Second,
		SendBuffer:     16,
		ReadLimit:      16 * 1024,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*app.Relay, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	relay := app.NewRelay(core.NewConnectionRegistry(), core.NewRoomRegistry(time.Now), app.Options{StrictJoin: cfg.StrictJoin})
	ctl := NewSignalWSController(relay, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return relay, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

type client struct {
	t  *testing.T
	ws *websocket.Conn
	id domain.ConnID
}

func dial(t *testing.T, url string) *client {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	c := &client{t: t, ws: ws}
	env := c.read()
	require.Equal(t, protocol.Connected, env.Type)
	var hello protocol.ConnectedPayload
	require.NoError(t, env.Bind(&hello))
	require.NotEmpty(t, hello.ConnectionID)
	c.id = hello.ConnectionID
	return c
}

func (c *client) send(t protocol.EventType, payload any) {
	c.t.Helper()
	b, err := protocol.Encode(t, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, b))
}

func (c *client) read() protocol.Envelope {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.ws.ReadMessage()
	require.NoError(c.t, err)
	env, err := protocol.Decode(data)
	require.NoError(c.t, err)
	return env
}

// expect reads frames until one of type t arrives.
func (c *client) expect(t protocol.EventType) protocol.Envelope {
	c.t.Helper()
	for range 10 {
		env := c.read()
		if env.Type == t {
			return env
		}
	}
	c.t.Fatalf("no %s frame", t)
	return protocol.Envelope{}
}

func (c *client) join(room domain.RoomID, who domain.Identity) protocol.RoomJoinedPayload {
	c.t.Helper()
	c.send(protocol.JoinRoom, protocol.JoinRoomPayload{RoomID: room, Identity: who})
	var p protocol.RoomJoinedPayload
	require.NoError(c.t, c.expect(protocol.RoomJoined).Bind(&p))
	return p
}

var (
	doctor  = domain.Identity{UserID: "d-1", Role: domain.RoleDoctor, DisplayName: "Dr. Ames"}
	patient = domain.Identity{UserID: "p-1", Role: domain.RolePatient, DisplayName: "Pat Lee"}
)

func TestSignal_TwoPartyCall(t *testing.T) {
	relay, url := newTestServer(t, testConfig())
	a := dial(t, url)
	b := dial(t, url)

	joined := a.join("R1", doctor)
	require.Empty(t, joined.Participants)

	joined = b.join("R1", patient)
	require.Len(t, joined.Participants, 1)
	require.Equal(t, a.id, joined.Participants[0].ConnectionID)

	var uj protocol.UserJoinedPayload
	require.NoError(t, a.expect(protocol.UserJoined).Bind(&uj))
	require.Equal(t, b.id, uj.ConnectionID)
	require.Equal(t, patient, uj.Identity)

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	a.send(protocol.Offer, protocol.NegotiationPayload{Offer: sdp, To: b.id})
	var relayed protocol.Relayed
	require.NoError(t, b.expect(protocol.Offer).Bind(&relayed))
	require.Equal(t, a.id, relayed.From)
	require.JSONEq(t, string(sdp), string(relayed.Offer))
	require.Equal(t, &doctor, relayed.FromIdentity)

	b.send(protocol.ToggleAudio, protocol.TogglePayload{RoomID: "R1", Enabled: false})
	var toggle protocol.PeerTogglePayload
	require.NoError(t, a.expect(protocol.PeerToggleAudio).Bind(&toggle))
	require.Equal(t, b.id, toggle.From)
	require.False(t, toggle.Enabled)

	require.Equal(t, app.Stats{ActiveRooms: 1, ActiveUsers: 2}, relay.Stats())

	require.NoError(t, b.ws.Close())
	var left protocol.UserLeftPayload
	require.NoError(t, a.expect(protocol.UserLeft).Bind(&left))
	require.Equal(t, b.id, left.ConnectionID)

	a.send(protocol.LeaveRoom, protocol.RoomPayload{RoomID: "R1"})
	a.expect(protocol.Left)
	require.Eventually(t, func() bool {
		return relay.Stats() == app.Stats{}
	}, time.Second, 10*time.Millisecond)
}

func TestSignal_ErrorReplies(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	c := dial(t, url)

	require.NoError(t, c.ws.WriteMessage(websocket.TextMessage, []byte("{not json")))
	var e protocol.ErrorPayload
	require.NoError(t, c.expect(protocol.Error).Bind(&e))
	require.Equal(t, protocol.CodeBadPayload, e.Code)

	c.send("teleport", nil)
	require.NoError(t, c.expect(protocol.Error).Bind(&e))
	require.Equal(t, protocol.CodeUnknownEvent, e.Code)

	c.send(protocol.EndCall, protocol.RoomPayload{})
	require.NoError(t, c.expect(protocol.Error).Bind(&e))
	require.Equal(t, protocol.CodeNotInRoom, e.Code)

	c.send(protocol.Ping, nil)
	c.expect(protocol.Pong)
}

func TestSignal_StrictJoin(t *testing.T) {
	cfg := testConfig()
	cfg.StrictJoin = true
	_, url := newTestServer(t, cfg)
	c := dial(t, url)

	c.send(protocol.JoinRoom, protocol.JoinRoomPayload{RoomID: "R1", Identity: domain.Identity{UserID: "x", Role: "nurse"}})
	var e protocol.ErrorPayload
	require.NoError(t, c.expect(protocol.Error).Bind(&e))
	require.Equal(t, protocol.CodeValidationError, e.Code)

	c.join("R1", doctor)
	c.send(protocol.WhoAmI, nil)
	var me protocol.WhoAmIPayload
	require.NoError(t, c.expect(protocol.WhoAmI).Bind(&me))
	require.Equal(t, c.id, me.ConnectionID)
	require.Equal(t, domain.RoomID("R1"), me.RoomID)
}

func TestSignal_UnknownTargetIsDropped(t *testing.T) {
	_, url := newTestServer(t, testConfig())
	a := dial(t, url)
	a.join("R1", doctor)

	a.send(protocol.Offer, protocol.NegotiationPayload{Offer: json.RawMessage(`{}`), To: "ghost"})
	// The next reply must be the pong: nothing was sent back for the offer.
	a.send(protocol.Ping, nil)
	require.Equal(t, protocol.Pong, a.read().Type)
}

func TestSignal_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.MessageRate = 0.001
	cfg.MessageBurst = 1
	_, url := newTestServer(t, cfg)
	c := dial(t, url)

	c.send(protocol.Ping, nil)
	require.Equal(t, protocol.Pong, c.read().Type)

	c.send(protocol.Ping, nil)
	env := c.read()
	require.Equal(t, protocol.Error, env.Type)
	var e protocol.ErrorPayload
	require.NoError(t, env.Bind(&e))
	require.Equal(t, protocol.CodeRateLimited, e.Code)
}

func TestSignal_RejectsForeignOrigin(t *testing.T) {
	_, url := newTestServer(t, testConfig())

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"http://localhost:3000"}}
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = ws.Close()
}
