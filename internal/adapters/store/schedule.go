// Package store keeps rooms announced ahead of time through the REST API.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/CallRelay/internal/domain"
)

const keyPrefix = "room:"

// BadgerSchedule implements core.ScheduleStore. Records expire after ttl so
// appointments that never happen do not pile up.
type BadgerSchedule struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerSchedule opens the store at path, or in memory when path is empty.
func OpenBadgerSchedule(path string, ttl time.Duration) (*BadgerSchedule, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{log.With().Str("module", "store.badger").Logger()})
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open schedule store: %w", err)
	}
	log.Info().Str("module", "store").Str("path", path).Dur("ttl", ttl).Msg("schedule store opened")
	return &BadgerSchedule{db: db, ttl: ttl}, nil
}

func (s *BadgerSchedule) Save(room domain.ScheduledRoom) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal scheduled room: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key(room.ID), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get returns domain.ErrRoomNotFound for unknown or expired ids.
func (s *BadgerSchedule) Get(id domain.RoomID) (domain.ScheduledRoom, error) {
	var room domain.ScheduledRoom
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &room)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ScheduledRoom{}, domain.ErrRoomNotFound
	}
	if err != nil {
		return domain.ScheduledRoom{}, fmt.Errorf("get scheduled room %s: %w", id, err)
	}
	return room, nil
}

func (s *BadgerSchedule) Close() error {
	return s.db.Close()
}

func key(id domain.RoomID) []byte {
	return []byte(keyPrefix + string(id))
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Error().Msgf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn().Msgf(f, v...) }
func (b badgerLogger) Infof(f string, v ...interface{})    { b.l.Debug().Msgf(f, v...) }
func (b badgerLogger) Debugf(f string, v ...interface{})   { b.l.Trace().Msgf(f, v...) }
