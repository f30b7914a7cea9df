package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
	"github.com/dkeye/CallRelay/internal/protocol"
)

var (
	alice = domain.Identity{UserID: "u1", Role: domain.RoleDoctor, DisplayName: "Alice"}
	bob   = domain.Identity{UserID: "u2", Role: domain.RolePatient, DisplayName: "Bob"}
	carol = domain.Identity{UserID: "u3", Role: domain.RolePatient, DisplayName: "Carol"}
)

// sink records every frame queued for one connection.
type sink struct {
	mu     sync.Mutex
	frames []protocol.Envelope
}

func (s *sink) TrySend(f core.Frame) error {
	env, err := protocol.Decode(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.frames = append(s.frames, env)
	s.mu.Unlock()
	return nil
}

func (s *sink) Close() {}

// take returns and forgets everything received so far.
func (s *sink) take() []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.frames
	s.frames = nil
	return out
}

func types(envs []protocol.Envelope) []protocol.EventType {
	out := make([]protocol.EventType, 0, len(envs))
	for _, e := range envs {
		out = append(out, e.Type)
	}
	return out
}

func payloadOf[T any](t *testing.T, env protocol.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Payload, &v))
	return v
}

var testEpoch = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

type harness struct {
	relay   *Relay
	sinks   map[domain.ConnID]*sink
	cancels map[domain.ConnID]context.Context
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testEpoch }
	}
	return &harness{
		relay:   NewRelay(core.NewConnectionRegistry(), core.NewRoomRegistry(opts.Now), opts),
		sinks:   make(map[domain.ConnID]*sink),
		cancels: make(map[domain.ConnID]context.Context),
	}
}

// connect binds a socket and discards the connected greeting.
func (h *harness) connect(id domain.ConnID) *sink {
	s := &sink{}
	ctx, cancel := context.WithCancel(context.Background())
	h.relay.Connect(id, "token-"+string(id), s, cancel)
	h.sinks[id] = s
	h.cancels[id] = ctx
	s.take()
	return s
}

func (h *harness) join(t *testing.T, id domain.ConnID, room domain.RoomID, who domain.Identity) {
	t.Helper()
	require.NoError(t, h.relay.Join(id, room, who))
}

func (h *harness) drain() {
	for _, s := range h.sinks {
		s.take()
	}
}

func (h *harness) participants(room domain.RoomID) []domain.ConnID {
	r, ok := h.relay.Rooms.Get(room)
	if !ok {
		return nil
	}
	ids := []domain.ConnID{}
	for _, p := range r.Participants() {
		ids = append(ids, p.ConnectionID)
	}
	return ids
}
