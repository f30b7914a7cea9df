package core

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/dkeye/CallRelay/internal/domain"
)

// Room is a threadsafe ordered participant list.
type Room struct {
	ID        domain.RoomID
	CreatedAt time.Time

	mu           sync.RWMutex
	participants []domain.Participant
}

func newRoom(id domain.RoomID, createdAt time.Time) *Room {
	return &Room{ID: id, CreatedAt: createdAt}
}

// Add appends p unless its connection is already present.
func (r *Room) Add(p domain.Participant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.ContainsFunc(r.participants, func(x domain.Participant) bool {
		return x.ConnectionID == p.ConnectionID
	}) {
		return false
	}
	r.participants = append(r.participants, p)
	log.Info().Str("module", "core.room").Str("room", string(r.ID)).Str("conn", string(p.ConnectionID)).Int("count", len(r.participants)).Msg("participant added")
	return true
}

// Remove drops the participant bound to id and returns it.
func (r *Room) Remove(id domain.ConnID) (domain.Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.participants, func(x domain.Participant) bool {
		return x.ConnectionID == id
	})
	if i < 0 {
		return domain.Participant{}, false
	}
	p := r.participants[i]
	r.participants = slices.Delete(r.participants, i, i+1)
	log.Info().Str("module", "core.room").Str("room", string(r.ID)).Str("conn", string(id)).Int("count", len(r.participants)).Msg("participant removed")
	return p, true
}

func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Participants returns a copy in join order. Never nil.
func (r *Room) Participants() []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// Others returns every participant except the one bound to id.
func (r *Room) Others(id domain.ConnID) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(r.participants, func(p domain.Participant, _ int) bool {
		return p.ConnectionID != id
	})
}

// RoomSnapshot is a read-only view for APIs.
type RoomSnapshot struct {
	ID           domain.RoomID        `json:"id"`
	Participants []domain.Participant `json:"participants"`
	CreatedAt    time.Time            `json:"createdAt"`
}

type RoomInfo struct {
	ID               domain.RoomID `json:"roomId"`
	ParticipantCount int           `json:"participantCount"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// RoomRegistry owns live rooms. A room exists exactly while it has participants.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
	now   func() time.Time
}

func NewRoomRegistry(now func() time.Time) *RoomRegistry {
	if now == nil {
		now = time.Now
	}
	return &RoomRegistry{
		rooms: make(map[domain.RoomID]*Room),
		now:   now,
	}
}

// GetOrCreate is the only way a room comes into existence.
func (f *RoomRegistry) GetOrCreate(id domain.RoomID) *Room {
	f.mu.RLock()
	room, ok := f.rooms[id]
	f.mu.RUnlock()
	if ok {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[id]; ok {
		return room
	}
	room = newRoom(id, f.now().UTC())
	f.rooms[id] = room
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room created")
	return room
}

func (f *RoomRegistry) Get(id domain.RoomID) (*Room, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[id]
	return room, ok
}

// DeleteIfEmpty removes the room once its last participant is gone.
func (f *RoomRegistry) DeleteIfEmpty(id domain.RoomID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok || room.Len() > 0 {
		return false
	}
	delete(f.rooms, id)
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room deleted (empty)")
	return true
}

func (f *RoomRegistry) Snapshot(id domain.RoomID) (RoomSnapshot, bool) {
	room, ok := f.Get(id)
	if !ok {
		return RoomSnapshot{}, false
	}
	return RoomSnapshot{
		ID:           room.ID,
		Participants: room.Participants(),
		CreatedAt:    room.CreatedAt,
	}, true
}

// List returns live rooms, oldest first.
func (f *RoomRegistry) List() []RoomInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := lo.MapToSlice(f.rooms, func(id domain.RoomID, r *Room) RoomInfo {
		return RoomInfo{ID: id, ParticipantCount: r.Len(), CreatedAt: r.CreatedAt}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (f *RoomRegistry) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rooms)
}
