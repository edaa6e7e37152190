package core

import (
	"errors"
	"testing"

	"github.com/tverdyi/watchroom/internal/domain"
)

func TestKickNotifiesTargetFirstAndLeavesNoBan(t *testing.T) {
	r, _, host, guest := playbackRoom(t)

	if err := r.Kick("h1", "g1"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	events := guest.events(t)
	var sawKicked bool
	for _, ev := range events {
		if ev["type"] == EvUserLeft && !sawKicked {
			t.Error("general departure reached the target before the kick notice")
		}
		if ev["type"] == EvKicked {
			sawKicked = true
		}
	}
	if !sawKicked {
		t.Fatal("target never told it was kicked")
	}
	if host.countOfType(t, EvUserLeft) != 1 {
		t.Error("room not told about the removal")
	}

	// A kick is not a ban: the same client walks right back in.
	if _, err := r.Join(JoinParams{Conn: &fakeConn{}, ConnID: "g2", ClientID: "client-g", Name: "Guest"}); err != nil {
		t.Errorf("rejoin after kick: %v", err)
	}
}

func TestTransferHost(t *testing.T) {
	r, _, host, guest := playbackRoom(t)
	host.reset()
	guest.reset()

	if err := r.TransferHost("h1", "g1"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := r.Host(); got != "g1" {
		t.Fatalf("host = %q, want g1", got)
	}
	if guest.lastOfType(t, EvHostAssigned) == nil {
		t.Error("new host was not told")
	}
	changed := host.lastOfType(t, EvHostChanged)
	if changed == nil || changed["id"] != "g1" {
		t.Errorf("old host notice = %v", changed)
	}

	// Privileges actually moved.
	if err := r.ToggleLock("h1", true); !errors.Is(err, ErrNotHost) {
		t.Errorf("old host lock err = %v, want not host", err)
	}
	if err := r.ToggleLock("g1", true); err != nil {
		t.Errorf("new host lock: %v", err)
	}
}

func TestTransferHostUnknownTarget(t *testing.T) {
	r, _, _, _ := playbackRoom(t)
	if err := r.TransferHost("h1", "ghost"); !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("err = %v, want target not found", err)
	}
	if got := r.Host(); got != "h1" {
		t.Errorf("host = %q after failed transfer, want h1", got)
	}
}

func TestMuteAllExemptsHostAndReverses(t *testing.T) {
	r, _, host, _ := playbackRoom(t)
	join(t, r, "g2", "client-g2", "Second")
	host.reset()

	if err := r.MuteAll("h1", true); err != nil {
		t.Fatalf("mute all: %v", err)
	}
	upd := host.lastOfType(t, EvRoomUpdate)
	if upd == nil {
		t.Fatal("no membership refresh after mute-all")
	}
	for _, u := range upd["users"].([]any) {
		user := u.(map[string]any)
		wantMuted := user["id"] != "h1"
		if user["isMuted"] != wantMuted {
			t.Errorf("user %v muted = %v, want %v", user["id"], user["isMuted"], wantMuted)
		}
	}

	// Late joiners inherit the room-wide mute.
	late := join(t, r, "g3", "client-g3", "Late")
	state := late.lastOfType(t, EvRoomState)
	var self map[string]any
	for _, u := range state["users"].([]any) {
		if u.(map[string]any)["id"] == "g3" {
			self = u.(map[string]any)
		}
	}
	if self == nil || self["isMuted"] != true {
		t.Errorf("late joiner mute flag = %v, want true", self)
	}

	if err := r.MuteAll("h1", false); err != nil {
		t.Fatalf("unmute all: %v", err)
	}
	upd = host.lastOfType(t, EvRoomUpdate)
	for _, u := range upd["users"].([]any) {
		if user := u.(map[string]any); user["isMuted"] != false {
			t.Errorf("user %v still muted after reverse", user["id"])
		}
	}
}

func TestHostOnlyOperationsRejectGuests(t *testing.T) {
	r, _, _, _ := playbackRoom(t)

	tests := []struct {
		name string
		op   func() error
	}{
		{"toggle-lock", func() error { return r.ToggleLock("g1", true) }},
		{"room-settings", func() error { return r.UpdateRoomSettings("g1", domain.RoomSettings{}) }},
		{"host-controls", func() error { return r.UpdateHostControls("g1", HostControls{}) }},
		{"appearance", func() error { return r.UpdateAppearance("g1", domain.AppearanceSettings{}) }},
		{"kick", func() error { return r.Kick("g1", "h1") }},
		{"ban", func() error { return r.Ban("g1", "h1") }},
		{"transfer-host", func() error { return r.TransferHost("g1", "g1") }},
		{"mute-all", func() error { return r.MuteAll("g1", true) }},
		{"clear-chat", func() error { return r.ClearChat("g1") }},
		{"sync-time", func() error { return r.SyncTime("g1", 0) }},
		{"close-room", func() error { _, err := r.Close("g1"); return err }},
		{"activity-log", func() error { _, err := r.ActivityLog("g1"); return err }},
		{"approve-join", func() error { return r.ApproveJoin("g1", "p1") }},
		{"reject-join", func() error { return r.RejectJoin("g1", "p1", "") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, ErrNotHost) {
				t.Errorf("err = %v, want not host", err)
			}
		})
	}
}

func TestCloseEvictsEveryone(t *testing.T) {
	r, _, host, guest := playbackRoom(t)
	hc := HostControls{Moderation: r.Settings().Moderation}
	hc.Access.RequireApproval = true
	if err := r.UpdateHostControls("h1", hc); err != nil {
		t.Fatalf("controls: %v", err)
	}
	pending := &fakeConn{}
	if _, err := r.Join(JoinParams{Conn: pending, ConnID: "p1", ClientID: "client-p", Name: "Knock"}); err != nil {
		t.Fatalf("pending join: %v", err)
	}

	evicted, err := r.Close("h1")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(evicted) != 3 {
		t.Errorf("evicted %d connections, want 3 (two members, one pending)", len(evicted))
	}
	for name, c := range map[string]*fakeConn{"host": host, "guest": guest, "pending": pending} {
		if c.countOfType(t, EvRoomClosed) == 0 {
			t.Errorf("%s not told the room closed", name)
		}
	}
	if r.MemberCount() != 0 {
		t.Errorf("members = %d after close, want 0", r.MemberCount())
	}
}

func TestClosedRoomRefusesJoins(t *testing.T) {
	r, _, _, _ := playbackRoom(t)
	if _, err := r.Close("h1"); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := r.Join(JoinParams{Conn: &fakeConn{}, ConnID: "n1", ClientID: "client-n", Name: "Late"})
	if !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join after close err = %v, want room not found", err)
	}
	if r.MemberCount() != 0 {
		t.Errorf("members = %d in a closed room, want 0", r.MemberCount())
	}
}

func TestActivityLogRecordsModeration(t *testing.T) {
	r, _, _, _ := playbackRoom(t)

	if err := r.Kick("h1", "g1"); err != nil {
		t.Fatalf("kick: %v", err)
	}
	if err := r.ToggleLock("h1", true); err != nil {
		t.Fatalf("lock: %v", err)
	}

	log, err := r.ActivityLog("h1")
	if err != nil {
		t.Fatalf("activity log: %v", err)
	}
	actions := make(map[string]bool)
	for _, e := range log {
		actions[e.Action] = true
	}
	for _, want := range []string{"kick", "toggle-lock"} {
		if !actions[want] {
			t.Errorf("activity log missing %q: %v", want, log)
		}
	}
}

func TestBanEntryMatchesEitherIdentityField(t *testing.T) {
	r, _, _, _ := playbackRoom(t)
	if err := r.Ban("h1", "g1"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	// Same client, new name.
	if _, err := r.Join(JoinParams{Conn: &fakeConn{}, ConnID: "x1", ClientID: "client-g", Name: "Disguise"}); !errors.Is(err, ErrBanned) {
		t.Errorf("same-client rejoin err = %v, want banned", err)
	}
	// New client, same name.
	if _, err := r.Join(JoinParams{Conn: &fakeConn{}, ConnID: "x2", ClientID: "client-new", Name: "Guest"}); !errors.Is(err, ErrBanned) {
		t.Errorf("same-name rejoin err = %v, want banned", err)
	}
	// Fresh on both counts.
	if _, err := r.Join(JoinParams{Conn: &fakeConn{}, ConnID: "x3", ClientID: "client-new", Name: "Newcomer"}); err != nil {
		t.Errorf("clean rejoin err = %v", err)
	}
}
