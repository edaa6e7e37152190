package core

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

// MarkDisconnected flags the member instead of removing it, clears its
// ephemeral presence and reports the stable identity plus the disconnect
// instant the grace timer must watch. ok is false when the connection was
// only a pending requester or unknown; pending requesters are dropped
// immediately, they have no grace. Dropping a pending entry never shadows
// a member with the same connection id.
func (r *Room) MarkDisconnected(conn domain.ConnID) (client domain.ClientID, at time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removePending(conn)
	m := r.findMember(conn)
	if m == nil {
		return "", time.Time{}, false
	}
	m.IsDisconnected = true
	m.DisconnectedAt = r.now()

	if _, typing := r.typing[conn]; typing {
		delete(r.typing, conn)
		r.broadcastTyping()
	}
	if _, inCall := r.call[conn]; inCall {
		delete(r.call, conn)
		r.broadcastCall()
	}
	r.broadcast(struct {
		Type string    `json:"type"`
		User MemberDTO `json:"user"`
	}{EvUserUpdated, r.memberDTO(m.Member)})

	log.Info().Str("module", "core.presence").Str("room", string(r.Key)).
		Str("sid", string(conn)).Str("client", string(m.ClientID)).Msg("member disconnected, grace running")
	return m.ClientID, m.DisconnectedAt, true
}

// ExpireDisconnected is the grace-timer body. The at argument pins the
// expiry to one particular disconnect: a timer armed before a reconnect
// cycle carries a stale timestamp and is a no-op, even when the member has
// since disconnected again. Reports whether the room emptied out.
func (r *Room) ExpireDisconnected(client domain.ClientID, at time.Time) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.findByClient(client)
	if m == nil || !m.IsDisconnected || !m.DisconnectedAt.Equal(at) {
		return false, len(r.members) == 0
	}
	r.removeMember(m, EvUserLeft)
	log.Info().Str("module", "core.presence").Str("room", string(r.Key)).
		Str("client", string(client)).Msg("grace expired, member removed")
	return true, len(r.members) == 0
}

// SetTyping inserts or removes the member from the typing set and pushes
// the full current set to the room on every mutation.
func (r *Room) SetTyping(conn domain.ConnID, typing bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(conn)
	if m == nil {
		return ErrTargetNotFound
	}
	if typing {
		r.typing[conn] = typingEntry{name: m.Name, at: r.now()}
	} else {
		delete(r.typing, conn)
	}
	r.broadcastTyping()
	return nil
}

// broadcastTyping sends the whole typing set. Caller holds mu.
func (r *Room) broadcastTyping() {
	users := make([]TypingDTO, 0, len(r.typing))
	for id, t := range r.typing {
		users = append(users, TypingDTO{ID: id, Name: t.name})
	}
	r.broadcast(TypingEvent{Type: EvTyping, Users: users})
}

// UpdateMediaState covers mute/camera/mic flag changes in one place.
// Nil fields are left untouched.
func (r *Room) UpdateMediaState(conn domain.ConnID, muted, cameraMuted, micMuted *bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(conn)
	if m == nil {
		return ErrTargetNotFound
	}
	if muted != nil {
		m.IsMuted = *muted
	}
	if cameraMuted != nil {
		m.IsCameraMuted = *cameraMuted
	}
	if micMuted != nil {
		m.IsMicMuted = *micMuted
	}
	r.broadcast(struct {
		Type string    `json:"type"`
		User MemberDTO `json:"user"`
	}{EvUserUpdated, r.memberDTO(m.Member)})
	return nil
}

// JoinCall adds the connection to the signaling session set.
func (r *Room) JoinCall(conn domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findMember(conn) == nil {
		return ErrTargetNotFound
	}
	r.call[conn] = struct{}{}
	r.broadcastCall()
	return nil
}

func (r *Room) LeaveCall(conn domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.call, conn)
	r.broadcastCall()
	return nil
}

// broadcastCall sends the current call membership. Caller holds mu.
func (r *Room) broadcastCall() {
	ids := make([]domain.ConnID, 0, len(r.call))
	for id := range r.call {
		ids = append(ids, id)
	}
	r.broadcast(struct {
		Type    string          `json:"type"`
		Members []domain.ConnID `json:"members"`
	}{EvCallMembers, ids})
}

// Relay forwards an opaque signaling payload 1:1 to the named target
// connection. The coordinator does not interpret the payload beyond the
// envelope.
func (r *Room) Relay(from, target domain.ConnID, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(target)
	if m == nil || m.IsDisconnected {
		return ErrTargetNotFound
	}
	r.send(m.conn, struct {
		Type    string        `json:"type"`
		From    domain.ConnID `json:"from"`
		Payload any           `json:"payload"`
	}{event, from, payload})
	return nil
}
