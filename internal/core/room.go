package core

import (
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

// memberState pairs a member's meta with its transport endpoint.
type memberState struct {
	*domain.Member
	conn SignalConnection
}

// pendingState is a member-shaped record held outside the member list
// until the host approves or rejects it.
type pendingState struct {
	*domain.Member
	conn SignalConnection
}

type typingEntry struct {
	name string
	at   time.Time
}

// Room is one shared-viewing session. All state transitions are serialized
// under mu; different rooms run fully in parallel. Nothing here blocks on
// I/O: outbound delivery is a non-blocking TrySend per connection.
type Room struct {
	Key domain.RoomKey

	mu  sync.Mutex
	now func() time.Time

	hostConn   domain.ConnID
	hostClient domain.ClientID

	members []*memberState
	pending []*pendingState
	bans    []domain.BanEntry

	playback domain.PlaybackState
	settings domain.Settings

	transcript []domain.Message
	activity   []domain.ActivityEntry

	typing map[domain.ConnID]typingEntry
	call   map[domain.ConnID]struct{}

	blockedRe []*regexp.Regexp
	closed    bool
}

func NewRoom(key domain.RoomKey) *Room {
	return NewRoomWithClock(key, time.Now)
}

// NewRoomWithClock lets tests drive extrapolation and slow mode
// deterministically.
func NewRoomWithClock(key domain.RoomKey, now func() time.Time) *Room {
	return &Room{
		Key:      key,
		now:      now,
		playback: domain.NewPlaybackState(now()),
		settings: domain.DefaultSettings(),
		typing:   make(map[domain.ConnID]typingEntry),
		call:     make(map[domain.ConnID]struct{}),
	}
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Empty reports whether no members remain, disconnected ones included.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}

func (r *Room) Host() domain.ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostConn
}

func (r *Room) Settings() domain.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

/* ---- internals, caller must hold mu ---- */

func (r *Room) findMember(conn domain.ConnID) *memberState {
	for _, m := range r.members {
		if m.ConnID == conn {
			return m
		}
	}
	return nil
}

func (r *Room) findByClient(client domain.ClientID) *memberState {
	for _, m := range r.members {
		if m.ClientID == client {
			return m
		}
	}
	return nil
}

func (r *Room) isHost(conn domain.ConnID) bool {
	return r.hostConn != "" && r.hostConn == conn
}

func (r *Room) memberDTO(m *domain.Member) MemberDTO {
	return MemberDTO{
		ID:             m.ConnID,
		ClientID:       m.ClientID,
		Name:           m.Name,
		IsHost:         m.IsHost,
		IsMuted:        m.IsMuted,
		IsCameraMuted:  m.IsCameraMuted,
		IsMicMuted:     m.IsMicMuted,
		JoinedAt:       m.JoinedAt.UnixMilli(),
		IsDisconnected: m.IsDisconnected,
	}
}

func (r *Room) membersSnapshot() []MemberDTO {
	out := make([]MemberDTO, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, r.memberDTO(m.Member))
	}
	return out
}

func (r *Room) pendingSnapshot() []MemberDTO {
	out := make([]MemberDTO, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, r.memberDTO(p.Member))
	}
	return out
}

func (r *Room) playbackDTO() PlaybackDTO {
	return PlaybackDTO{
		VideoID:     r.playback.VideoID,
		Platform:    r.playback.Platform,
		CurrentTime: r.playback.CurrentTime,
		IsPlaying:   r.playback.IsPlaying,
		Rate:        r.playback.Rate,
		Quality:     r.playback.Quality,
	}
}

func (r *Room) stateEvent(to *memberState) RoomStateEvent {
	ev := RoomStateEvent{
		Type:     EvRoomState,
		Room:     r.Key,
		UserID:   to.ConnID,
		IsHost:   to.IsHost,
		Host:     r.hostConn,
		Users:    r.membersSnapshot(),
		Playback: r.playbackDTO(),
		Settings: r.settings,
	}
	if to.IsHost {
		ev.Pending = r.pendingSnapshot()
	}
	return ev
}

func (r *Room) logActivity(actor, action, target string) {
	r.activity = append(r.activity, domain.ActivityEntry{
		At:     r.now(),
		Actor:  actor,
		Action: action,
		Target: target,
	})
}

/* ---- delivery helpers, caller must hold mu ---- */

func marshal(v any) Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("event marshal")
		return nil
	}
	return b
}

func (r *Room) send(conn SignalConnection, v any) {
	if conn == nil {
		return
	}
	f := marshal(v)
	if f == nil {
		return
	}
	if err := conn.TrySend(f); err != nil {
		log.Debug().Err(err).Str("module", "core.room").Str("room", string(r.Key)).Msg("send dropped")
	}
}

// broadcast delivers to every member, disconnected ones skipped.
func (r *Room) broadcast(v any) {
	r.broadcastExcept("", v)
}

func (r *Room) broadcastExcept(except domain.ConnID, v any) {
	f := marshal(v)
	if f == nil {
		return
	}
	sent := 0
	for _, m := range r.members {
		if m.ConnID == except || m.IsDisconnected {
			continue
		}
		if err := m.conn.TrySend(f); err != nil {
			log.Debug().Err(err).Str("module", "core.room").Str("sid", string(m.ConnID)).Msg("broadcast dropped")
			continue
		}
		sent++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.Key)).Int("sent_to", sent).Msg("broadcast")
}
