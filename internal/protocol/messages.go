package protocol

import (
	"encoding/json"

	"github.com/dkeye/CallRelay/internal/domain"
)

// Client to server payloads.

type JoinRoomPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	domain.Identity
}

// RoomPayload is shared by leave-room, screen share and call start/end.
type RoomPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type TogglePayload struct {
	RoomID  domain.RoomID `json:"roomId"`
	Enabled bool          `json:"enabled"`
}

type CallMessagePayload struct {
	RoomID  domain.RoomID   `json:"roomId"`
	Message json.RawMessage `json:"message"`
}

// NegotiationPayload carries offer, answer or ice-candidate. Only the field
// matching the frame type is set; the body is never inspected.
type NegotiationPayload struct {
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	To        domain.ConnID   `json:"to,omitempty"`
}

// Body returns the opaque negotiation body for kind.
func (p NegotiationPayload) Body(kind EventType) json.RawMessage {
	switch kind {
	case Offer:
		return p.Offer
	case Answer:
		return p.Answer
	case ICECandidate:
		return p.Candidate
	}
	return nil
}

// Server to client payloads.

type ConnectedPayload struct {
	ConnectionID domain.ConnID `json:"connectionId"`
}

type RoomJoinedPayload struct {
	RoomID       domain.RoomID        `json:"roomId"`
	Participants []domain.Participant `json:"participants"`
}

type UserJoinedPayload struct {
	ConnectionID domain.ConnID `json:"connectionId"`
	domain.Identity
}

type UserLeftPayload struct {
	ConnectionID domain.ConnID    `json:"connectionId"`
	Identity     *domain.Identity `json:"identity,omitempty"`
}

type LeftPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

// Relayed is a negotiation message on its way to the target peer.
type Relayed struct {
	Offer        json.RawMessage  `json:"offer,omitempty"`
	Answer       json.RawMessage  `json:"answer,omitempty"`
	Candidate    json.RawMessage  `json:"candidate,omitempty"`
	From         domain.ConnID    `json:"from"`
	FromIdentity *domain.Identity `json:"fromIdentity,omitempty"`
}

func NewRelayed(kind EventType, body json.RawMessage, from domain.ConnID, who *domain.Identity) Relayed {
	out := Relayed{From: from, FromIdentity: who}
	switch kind {
	case Offer:
		out.Offer = body
	case Answer:
		out.Answer = body
	case ICECandidate:
		out.Candidate = body
	}
	return out
}

// PeerEvent is used for call-started, call-ended and screen share notices.
type PeerEvent struct {
	From         domain.ConnID    `json:"from"`
	FromIdentity *domain.Identity `json:"fromIdentity,omitempty"`
}

type PeerTogglePayload struct {
	From    domain.ConnID `json:"from"`
	Enabled bool          `json:"enabled"`
}

type ChatPayload struct {
	From         domain.ConnID    `json:"from"`
	FromIdentity *domain.Identity `json:"fromIdentity,omitempty"`
	Message      json.RawMessage  `json:"message"`
	Timestamp    string           `json:"timestamp"`
}

type WhoAmIPayload struct {
	ConnectionID domain.ConnID    `json:"connectionId"`
	Identity     *domain.Identity `json:"identity,omitempty"`
	RoomID       domain.RoomID    `json:"roomId,omitempty"`
}

type ErrorPayload struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
}
