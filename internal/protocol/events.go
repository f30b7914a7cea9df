// Package protocol describes the JSON frames exchanged over the signaling socket.
package protocol

type EventType string

// Client to server.
const (
	JoinRoom         EventType = "join-room"
	LeaveRoom        EventType = "leave-room"
	ToggleVideo      EventType = "toggle-video"
	ToggleAudio      EventType = "toggle-audio"
	StartScreenShare EventType = "start-screen-share"
	StopScreenShare  EventType = "stop-screen-share"
	StartCall        EventType = "start-call"
	EndCall          EventType = "end-call"
	Ping             EventType = "ping"
	WhoAmI           EventType = "whoami"
)

// Both directions: the relay forwards these under the same name.
const (
	Offer        EventType = "offer"
	Answer       EventType = "answer"
	ICECandidate EventType = "ice-candidate"
	CallMessage  EventType = "call-message"
)

// Server to client.
const (
	Connected              EventType = "connected"
	RoomJoined             EventType = "room-joined"
	UserJoined             EventType = "user-joined"
	UserLeft               EventType = "user-left"
	Left                   EventType = "left"
	CallStarted            EventType = "call-started"
	CallEnded              EventType = "call-ended"
	PeerToggleVideo        EventType = "peer-toggle-video"
	PeerToggleAudio        EventType = "peer-toggle-audio"
	PeerScreenShareStarted EventType = "peer-screen-share-started"
	PeerScreenShareStopped EventType = "peer-screen-share-stopped"
	Pong                   EventType = "pong"
	Error                  EventType = "error"
)

// IsNegotiation reports whether t is a targeted peer-to-peer message.
func IsNegotiation(t EventType) bool {
	switch t {
	case Offer, Answer, ICECandidate:
		return true
	}
	return false
}

type ErrorCode string

const (
	CodeBadPayload      ErrorCode = "bad_payload"
	CodeUnknownEvent    ErrorCode = "unknown_event"
	CodeRateLimited     ErrorCode = "rate_limited"
	CodeValidationError ErrorCode = "validation_error"
	CodeNotInRoom       ErrorCode = "not_in_room"
)
