package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

// Coordinator glues the registries to the room state machines: room
// creation on host-intent joins, deletion on empty, grace timers and the
// bookkeeping the room itself must not know about.
type Coordinator struct {
	Rooms *RoomRegistry
	Conns *Registry
	Grace time.Duration

	// After is time.AfterFunc unless a test swaps it out.
	After func(d time.Duration, f func()) *time.Timer
}

func NewCoordinator(grace time.Duration) *Coordinator {
	return &Coordinator{
		Rooms: NewRoomRegistry(),
		Conns: NewRegistry(),
		Grace: grace,
		After: time.AfterFunc,
	}
}

// JoinRoom resolves or creates the room and runs the join protocol.
// A non-host join to a nonexistent room fails without creating anything.
func (c *Coordinator) JoinRoom(key domain.RoomKey, p core.JoinParams) (core.JoinStatus, error) {
	if key == "" || len(key) > domain.MaxRoomKeyLen {
		return 0, core.ErrBadPayload.With("invalid room key")
	}

	// Joining a second room implies leaving the first.
	if prev, ok := c.Conns.RoomOf(p.ConnID); ok && prev != key {
		c.LeaveRoom(p.ConnID)
	}

	room, ok := c.Rooms.Lookup(key)
	if !ok {
		if !p.AsHost {
			return 0, core.ErrRoomNotFound
		}
		room, _ = c.Rooms.CreateIfAbsent(key, func() *core.Room {
			return core.NewRoom(key)
		})
		log.Info().Str("module", "app.coordinator").Str("room", string(key)).Msg("room created")
	}

	status, err := room.Join(p)
	if err != nil {
		return 0, err
	}
	c.Conns.SetRoom(p.ConnID, key)
	return status, nil
}

// LeaveRoom is the explicit leave: no grace period, immediate removal.
func (c *Coordinator) LeaveRoom(sid domain.ConnID) {
	key, ok := c.Conns.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := c.Rooms.Lookup(key)
	if ok && room.Leave(sid) {
		c.Rooms.Delete(key)
		log.Info().Str("module", "app.coordinator").Str("room", string(key)).Msg("room deleted (empty)")
	}
	c.Conns.ClearRoom(sid)
}

// Disconnect marks the member and arms the grace timer keyed by the stable
// client identity. Reconnection before expiry flips the disconnected flag,
// which the timer body re-checks, so the race resolves last-write-wins.
func (c *Coordinator) Disconnect(sid domain.ConnID) {
	defer c.Conns.Unbind(sid)

	key, ok := c.Conns.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := c.Rooms.Lookup(key)
	if !ok {
		return
	}
	client, at, ok := room.MarkDisconnected(sid)
	if !ok {
		// Pending requester or already gone; nothing to wait for.
		if room.Empty() {
			c.Rooms.Delete(key)
		}
		return
	}
	c.After(c.Grace, func() {
		c.expire(key, client, at)
	})
}

// expire runs when a grace timer fires. The room is looked up fresh so a
// room deleted in the meantime makes this a no-op; the disconnect instant
// keeps a timer from an earlier disconnect from cutting a later grace
// window short.
func (c *Coordinator) expire(key domain.RoomKey, client domain.ClientID, at time.Time) {
	room, ok := c.Rooms.Lookup(key)
	if !ok {
		return
	}
	_, empty := room.ExpireDisconnected(client, at)
	if empty {
		c.Rooms.Delete(key)
		log.Info().Str("module", "app.coordinator").Str("room", string(key)).Msg("room deleted (grace expiry)")
	}
}

// CloseRoom is the host's explicit shutdown: evict everyone, then drop the
// room.
func (c *Coordinator) CloseRoom(sid domain.ConnID) error {
	key, ok := c.Conns.RoomOf(sid)
	if !ok {
		return core.ErrRoomNotFound
	}
	room, ok := c.Rooms.Lookup(key)
	if !ok {
		return core.ErrRoomNotFound
	}
	evicted, err := room.Close(sid)
	if err != nil {
		return err
	}
	for _, id := range evicted {
		c.Conns.ClearRoom(id)
	}
	c.Rooms.Delete(key)
	return nil
}

// Room resolves the caller's current room, fresh from the registry.
func (c *Coordinator) Room(sid domain.ConnID) (*core.Room, error) {
	key, ok := c.Conns.RoomOf(sid)
	if !ok {
		return nil, core.ErrRoomNotFound
	}
	room, ok := c.Rooms.Lookup(key)
	if !ok {
		return nil, core.ErrRoomNotFound
	}
	return room, nil
}
