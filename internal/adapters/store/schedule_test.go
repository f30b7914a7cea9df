package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/CallRelay/internal/core"
	"github.com/dkeye/CallRelay/internal/domain"
)

var _ core.ScheduleStore = (*BadgerSchedule)(nil)

func openInMemory(t *testing.T, ttl time.Duration) *BadgerSchedule {
	t.Helper()
	s, err := OpenBadgerSchedule("", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBadgerSchedule_SaveGet(t *testing.T) {
	s := openInMemory(t, time.Hour)
	room := domain.ScheduledRoom{
		ID:            "appt-42",
		AppointmentID: "appt-42",
		DoctorID:      "d-1",
		PatientID:     "p-1",
		CreatedAt:     time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(room))

	got, err := s.Get("appt-42")
	require.NoError(t, err)
	require.Equal(t, room.ID, got.ID)
	require.Equal(t, room.DoctorID, got.DoctorID)
	require.True(t, room.CreatedAt.Equal(got.CreatedAt))
}

func TestBadgerSchedule_NotFound(t *testing.T) {
	s := openInMemory(t, 0)
	_, err := s.Get("nope")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestBadgerSchedule_Overwrite(t *testing.T) {
	s := openInMemory(t, 0)
	require.NoError(t, s.Save(domain.ScheduledRoom{ID: "R1", DoctorID: "d-1"}))
	require.NoError(t, s.Save(domain.ScheduledRoom{ID: "R1", DoctorID: "d-2"}))

	got, err := s.Get("R1")
	require.NoError(t, err)
	require.Equal(t, domain.UserID("d-2"), got.DoctorID)
}

func TestBadgerSchedule_PersistsOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schedule")
	s, err := OpenBadgerSchedule(dir, 0)
	require.NoError(t, err)
	require.NoError(t, s.Save(domain.ScheduledRoom{ID: "R9"}))
	require.NoError(t, s.Close())

	s, err = OpenBadgerSchedule(dir, 0)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get("R9")
	require.NoError(t, err)
	require.Equal(t, domain.RoomID("R9"), got.ID)
}
