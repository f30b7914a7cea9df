package domain

import "time"

// Participant is a room-scoped copy of a connection identity.
// The room owns it; it never points back at the connection.
type Participant struct {
	ConnectionID ConnID    `json:"connectionId"`
	UserID       UserID    `json:"userId"`
	Role         Role      `json:"role"`
	DisplayName  string    `json:"displayName"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func NewParticipant(id ConnID, who Identity, joinedAt time.Time) Participant {
	return Participant{
		ConnectionID: id,
		UserID:       who.UserID,
		Role:         who.Role,
		DisplayName:  who.DisplayName,
		JoinedAt:     joinedAt,
	}
}

func (p Participant) Identity() Identity {
	return Identity{UserID: p.UserID, Role: p.Role, DisplayName: p.DisplayName}
}
