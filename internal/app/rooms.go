package app

import (
	"sync"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

// RoomRegistry is the process-wide room key to room mapping. It is the only
// structure shared by all connection handlers; everything inside a room is
// guarded by the room itself. Callers never retain rooms across operations:
// every operation looks its room up fresh, so deletion is immediately
// visible.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomKey]*core.Room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomKey]*core.Room)}
}

func (rr *RoomRegistry) Lookup(key domain.RoomKey) (*core.Room, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	room, ok := rr.rooms[key]
	return room, ok
}

// CreateIfAbsent guarantees at most one creation per key: two racing
// creations converge on the same room object.
func (rr *RoomRegistry) CreateIfAbsent(key domain.RoomKey, build func() *core.Room) (*core.Room, bool) {
	rr.mu.RLock()
	room, ok := rr.rooms[key]
	rr.mu.RUnlock()
	if ok {
		return room, false
	}
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if room, ok = rr.rooms[key]; ok {
		return room, false
	}
	room = build()
	rr.rooms[key] = room
	return room, true
}

func (rr *RoomRegistry) Delete(key domain.RoomKey) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.rooms, key)
}

func (rr *RoomRegistry) Count() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.rooms)
}
