package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

// GenerateRoomID is used when a room is scheduled without an appointment id.
func GenerateRoomID() RoomID {
	return RoomID("ROOM-" + uuid.NewString())
}

// ScheduledRoom is a room announced ahead of time through the REST API.
// It is not a live room: nobody is connected to it yet.
type ScheduledRoom struct {
	ID            RoomID    `json:"id"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	DoctorID      UserID    `json:"doctorId,omitempty"`
	PatientID     UserID    `json:"patientId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
