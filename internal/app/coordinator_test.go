package app

import (
	"errors"
	"testing"
	"time"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

type stubConn struct{}

func (stubConn) TrySend(core.Frame) error { return nil }
func (stubConn) Close()                   {}

// manualTimer collects armed grace timers so the test fires them by hand.
type manualTimer struct {
	delays []time.Duration
	fns    []func()
}

func (m *manualTimer) After(d time.Duration, f func()) *time.Timer {
	m.delays = append(m.delays, d)
	m.fns = append(m.fns, f)
	return nil
}

func (m *manualTimer) fire(t *testing.T, i int) {
	t.Helper()
	if i >= len(m.fns) {
		t.Fatalf("no timer %d armed (have %d)", i, len(m.fns))
	}
	m.fns[i]()
}

func newTestCoordinator() (*Coordinator, *manualTimer) {
	c := NewCoordinator(30 * time.Second)
	mt := &manualTimer{}
	c.After = mt.After
	return c, mt
}

func bindAndJoin(t *testing.T, c *Coordinator, sid, client, name string, asHost bool) {
	t.Helper()
	id := domain.Identity{ID: client, Name: name, Verified: true}
	c.Conns.Bind(domain.ConnID(sid), id, stubConn{})
	_, err := c.JoinRoom("movie-night", core.JoinParams{
		Conn:     stubConn{},
		ConnID:   domain.ConnID(sid),
		ClientID: domain.ClientID(client),
		Name:     name,
		AsHost:   asHost,
	})
	if err != nil {
		t.Fatalf("join %s: %v", sid, err)
	}
}

func TestGuestCannotCreateRoom(t *testing.T) {
	c, _ := newTestCoordinator()
	c.Conns.Bind("g1", domain.Identity{ID: "client-g", Verified: true}, stubConn{})

	_, err := c.JoinRoom("nope", core.JoinParams{
		Conn: stubConn{}, ConnID: "g1", ClientID: "client-g", Name: "Guest",
	})
	if !errors.Is(err, core.ErrRoomNotFound) {
		t.Fatalf("err = %v, want room not found", err)
	}
	if c.Rooms.Count() != 0 {
		t.Error("guest join created a room")
	}
}

func TestHostCreatesRoomOnDemand(t *testing.T) {
	c, _ := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)

	if c.Rooms.Count() != 1 {
		t.Fatalf("rooms = %d, want 1", c.Rooms.Count())
	}
	room, err := c.Room("h1")
	if err != nil {
		t.Fatalf("room resolve: %v", err)
	}
	if room.Host() != "h1" {
		t.Errorf("host = %q, want h1", room.Host())
	}

	// The second member finds the existing room without host intent.
	bindAndJoin(t, c, "g1", "client-g", "Guest", false)
	if room.MemberCount() != 2 {
		t.Errorf("members = %d, want 2", room.MemberCount())
	}
}

func TestInvalidRoomKeyRejected(t *testing.T) {
	c, _ := newTestCoordinator()
	for _, key := range []domain.RoomKey{"", domain.RoomKey(make([]byte, domain.MaxRoomKeyLen+1))} {
		_, err := c.JoinRoom(key, core.JoinParams{Conn: stubConn{}, ConnID: "h1", AsHost: true})
		if !errors.Is(err, core.ErrBadPayload) {
			t.Errorf("key %q err = %v, want bad payload", key, err)
		}
	}
}

func TestLeaveDeletesEmptyRoom(t *testing.T) {
	c, _ := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)

	c.LeaveRoom("h1")
	if c.Rooms.Count() != 0 {
		t.Error("empty room survived an explicit leave")
	}
	if _, err := c.Room("h1"); !errors.Is(err, core.ErrRoomNotFound) {
		t.Errorf("stale binding after leave: %v", err)
	}
}

func TestDisconnectArmsGraceTimer(t *testing.T) {
	c, mt := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)
	bindAndJoin(t, c, "g1", "client-g", "Guest", false)

	room, _ := c.Rooms.Lookup("movie-night")
	c.Disconnect("g1")

	if len(mt.fns) != 1 {
		t.Fatalf("timers armed = %d, want 1", len(mt.fns))
	}
	if mt.delays[0] != 30*time.Second {
		t.Errorf("grace delay = %v, want 30s", mt.delays[0])
	}
	if room.MemberCount() != 2 {
		t.Error("member removed before grace expired")
	}

	mt.fire(t, 0)
	if room.MemberCount() != 1 {
		t.Errorf("members = %d after expiry, want 1", room.MemberCount())
	}
	if c.Rooms.Count() != 1 {
		t.Error("room with remaining members was deleted")
	}
}

func TestGraceExpiryDeletesEmptyRoom(t *testing.T) {
	c, mt := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)

	c.Disconnect("h1")
	mt.fire(t, 0)
	if c.Rooms.Count() != 0 {
		t.Error("room not deleted after last member's grace expired")
	}
}

func TestReconnectBeforeExpiryIsNoOp(t *testing.T) {
	c, mt := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)
	bindAndJoin(t, c, "g1", "client-g", "Guest", false)

	c.Disconnect("g1")

	// Same client on a fresh connection, before the timer fires.
	c.Conns.Bind("g2", domain.Identity{ID: "client-g", Verified: true}, stubConn{})
	status, err := c.JoinRoom("movie-night", core.JoinParams{
		Conn: stubConn{}, ConnID: "g2", ClientID: "client-g", Name: "Guest",
	})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if status != core.JoinReconnected {
		t.Fatalf("status = %d, want reconnected", status)
	}

	mt.fire(t, 0)
	room, _ := c.Rooms.Lookup("movie-night")
	if room.MemberCount() != 2 {
		t.Errorf("members = %d after stale timer fired, want 2", room.MemberCount())
	}
}

func TestSecondGraceWindowRunsFullLength(t *testing.T) {
	c, mt := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)
	bindAndJoin(t, c, "g1", "client-g", "Guest", false)
	room, _ := c.Rooms.Lookup("movie-night")

	c.Disconnect("g1")

	c.Conns.Bind("g2", domain.Identity{ID: "client-g", Verified: true}, stubConn{})
	if _, err := c.JoinRoom("movie-night", core.JoinParams{
		Conn: stubConn{}, ConnID: "g2", ClientID: "client-g", Name: "Guest",
	}); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	c.Disconnect("g2")

	if len(mt.fns) != 2 {
		t.Fatalf("timers armed = %d, want 2", len(mt.fns))
	}

	// The first timer fires during the second grace window and must not
	// cut it short.
	mt.fire(t, 0)
	if room.MemberCount() != 2 {
		t.Fatalf("members = %d after the stale timer, want 2", room.MemberCount())
	}

	mt.fire(t, 1)
	if room.MemberCount() != 1 {
		t.Errorf("members = %d after the live timer, want 1", room.MemberCount())
	}
}

func TestCloseRoomEvictsAndUnbinds(t *testing.T) {
	c, _ := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)
	bindAndJoin(t, c, "g1", "client-g", "Guest", false)

	if err := c.CloseRoom("g1"); !errors.Is(err, core.ErrNotHost) {
		t.Fatalf("guest close err = %v, want not host", err)
	}
	if err := c.CloseRoom("h1"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Rooms.Count() != 0 {
		t.Error("room survived close")
	}
	for _, sid := range []domain.ConnID{"h1", "g1"} {
		if _, ok := c.Conns.RoomOf(sid); ok {
			t.Errorf("connection %s still bound to a room", sid)
		}
	}
}

func TestJoinSecondRoomLeavesFirst(t *testing.T) {
	c, _ := newTestCoordinator()
	bindAndJoin(t, c, "h1", "client-h", "Host", true)

	if _, err := c.JoinRoom("after-party", core.JoinParams{
		Conn: stubConn{}, ConnID: "h1", ClientID: "client-h", Name: "Host", AsHost: true,
	}); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if _, ok := c.Rooms.Lookup("movie-night"); ok {
		t.Error("first room survived empty after implicit leave")
	}
	key, _ := c.Conns.RoomOf("h1")
	if key != "after-party" {
		t.Errorf("bound room = %q, want after-party", key)
	}
}
