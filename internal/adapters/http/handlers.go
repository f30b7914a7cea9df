package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/app"
	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
)

type handlers struct {
	relay      *app.Relay
	schedule   core.ScheduleStore
	iceServers []webrtc.ICEServer
	now        func() time.Time
}

type CreateRoomRequest struct {
	AppointmentID string `json:"appointmentId" binding:"omitempty,max=128"`
	DoctorID      string `json:"doctorId" binding:"omitempty,max=128"`
	PatientID     string `json:"patientId" binding:"omitempty,max=128"`
}

type CreateRoomResponse struct {
	Success bool          `json:"success"`
	RoomID  domain.RoomID `json:"roomId"`
	Message string        `json:"message"`
}

// roomView is the REST shape for both live and scheduled rooms.
type roomView struct {
	ID           domain.RoomID        `json:"id"`
	DoctorID     domain.UserID        `json:"doctorId,omitempty"`
	PatientID    domain.UserID        `json:"patientId,omitempty"`
	Participants []domain.Participant `json:"participants"`
	CreatedAt    time.Time            `json:"createdAt"`
	Live         bool                 `json:"live"`
}

func (h *handlers) health(c *gin.Context) {
	st := h.relay.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"activeRooms": st.ActiveRooms,
		"activeUsers": st.ActiveUsers,
		"timestamp":   h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *handlers) iceServersList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.iceServers})
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.relay.Rooms.List()})
}

// createRoom schedules a room for an appointment. Nobody is in it until the
// first join-room arrives over the socket.
func (h *handlers) createRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	id := domain.RoomID(req.AppointmentID)
	if id == "" {
		id = domain.GenerateRoomID()
	}
	room := domain.ScheduledRoom{
		ID:            id,
		AppointmentID: req.AppointmentID,
		DoctorID:      domain.UserID(req.DoctorID),
		PatientID:     domain.UserID(req.PatientID),
		CreatedAt:     h.now().UTC(),
	}
	if err := h.schedule.Save(room); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("schedule room")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create room"})
		return
	}

	log.Info().Str("module", "adapters.http").Str("room", string(id)).Msg("room scheduled")
	c.JSON(http.StatusOK, CreateRoomResponse{Success: true, RoomID: id, Message: "Room created successfully"})
}

func (h *handlers) getRoom(c *gin.Context) {
	id := domain.RoomID(c.Param("roomId"))

	var view roomView
	sched, err := h.schedule.Get(id)
	switch {
	case err == nil:
		view = roomView{
			ID:           sched.ID,
			DoctorID:     sched.DoctorID,
			PatientID:    sched.PatientID,
			Participants: []domain.Participant{},
			CreatedAt:    sched.CreatedAt,
		}
	case errors.Is(err, domain.ErrRoomNotFound):
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(id)).Msg("lookup scheduled room")
	}

	if snap, ok := h.relay.Rooms.Snapshot(id); ok {
		view.ID = snap.ID
		view.Participants = snap.Participants
		view.CreatedAt = snap.CreatedAt
		view.Live = true
	}

	if view.ID == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": view})
}
