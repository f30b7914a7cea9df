//go:generate go run go.uber.org/mock/mockgen -source=schedule_iface.go -destination=../mocks/mock_schedule_iface.go -package=mocks
package core

import "github.com/dkeye/CallRelay/internal/domain"

// ScheduleStore keeps rooms announced through the REST API before anyone joins.
// Get returns domain.ErrRoomNotFound for unknown ids.
type ScheduleStore interface {
	Save(room domain.ScheduledRoom) error
	Get(id domain.RoomID) (domain.ScheduledRoom, error)
	Close() error
}
