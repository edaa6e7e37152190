package core

import (
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

// requireHost is the shared gate for privileged operations. Caller holds mu.
func (r *Room) requireHost(conn domain.ConnID) error {
	if !r.isHost(conn) {
		return ErrNotHost
	}
	return nil
}

// ToggleLock flips the room lock. Broadcast to everyone so all clients can
// update their controls.
func (r *Room) ToggleLock(conn domain.ConnID, locked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	r.settings.Access.Locked = locked
	r.logActivity(r.actorName(conn), "toggle-lock", "")
	r.broadcast(struct {
		Type     string `json:"type"`
		IsLocked bool   `json:"isLocked"`
	}{EvRoomLocked, locked})
	return nil
}

func (r *Room) UpdateRoomSettings(conn domain.ConnID, s domain.RoomSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	r.settings.Room = s
	r.logActivity(r.actorName(conn), "room-settings-change", "")
	r.broadcastExcept(conn, struct {
		Type     string              `json:"type"`
		Settings domain.RoomSettings `json:"settings"`
	}{EvRoomSettings, s})
	return nil
}

// HostControls is the moderation+access bundle the host edits in one go.
type HostControls struct {
	Moderation domain.ModerationSettings `json:"moderation"`
	Access     domain.AccessSettings     `json:"access"`
}

func (r *Room) UpdateHostControls(conn domain.ConnID, hc HostControls) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	wasAllMuted := r.settings.Moderation.AllMuted
	r.settings.Moderation = hc.Moderation
	hc.Access.HasPassword = hc.Access.Password != ""
	r.settings.Access = hc.Access
	r.rebuildWordFilter()
	if hc.Moderation.AllMuted != wasAllMuted {
		r.applyAllMuted(hc.Moderation.AllMuted)
	}
	r.logActivity(r.actorName(conn), "host-controls-change", "")
	r.broadcastExcept(conn, struct {
		Type     string       `json:"type"`
		Controls HostControls `json:"controls"`
	}{EvHostControls, hc})
	return nil
}

func (r *Room) UpdateAppearance(conn domain.ConnID, s domain.AppearanceSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	r.settings.Appearance = s
	r.broadcastExcept(conn, struct {
		Type     string                    `json:"type"`
		Settings domain.AppearanceSettings `json:"settings"`
	}{EvAppearance, s})
	return nil
}

func (r *Room) UpdatePersonalSettings(conn domain.ConnID, chat domain.ChatDisplaySettings, notif domain.NotificationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	r.settings.ChatDisplay = chat
	r.settings.Notifications = notif
	r.broadcastExcept(conn, struct {
		Type          string                      `json:"type"`
		ChatDisplay   domain.ChatDisplaySettings  `json:"chatDisplay"`
		Notifications domain.NotificationSettings `json:"notifications"`
	}{EvPersonal, chat, notif})
	return nil
}

// Kick removes the target. The removed connection hears about it first,
// distinctly, before the general broadcast. No ban entry is created.
func (r *Room) Kick(conn, target domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	m := r.findMember(target)
	if m == nil {
		return ErrTargetNotFound
	}
	r.logActivity(r.actorName(conn), "kick", m.Name)
	r.send(m.conn, struct {
		Type string `json:"type"`
	}{EvKicked})
	r.removeMember(m, EvUserLeft)
	return nil
}

// Ban is a kick plus a ban-list entry matching either the stable client
// identity or the display name on future joins.
func (r *Room) Ban(conn, target domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	m := r.findMember(target)
	if m == nil {
		return ErrTargetNotFound
	}
	r.bans = append(r.bans, domain.BanEntry{
		ClientID: m.ClientID,
		Name:     m.Name,
		BannedAt: r.now(),
	})
	r.logActivity(r.actorName(conn), "ban", m.Name)
	r.send(m.conn, struct {
		Type string `json:"type"`
	}{EvBanned})
	r.removeMember(m, EvUserLeft)
	return nil
}

// TransferHost hands the room to another current member. Both sides are
// told individually, then the refreshed membership goes out to everyone.
func (r *Room) TransferHost(conn, target domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	next := r.findMember(target)
	if next == nil {
		return ErrTargetNotFound
	}
	prev := r.findMember(conn)
	if prev != nil {
		prev.IsHost = false
		r.send(prev.conn, struct {
			Type string        `json:"type"`
			ID   domain.ConnID `json:"id"`
		}{EvHostChanged, next.ConnID})
	}
	next.IsHost = true
	r.hostConn = next.ConnID
	r.hostClient = next.ClientID
	r.logActivity(r.actorName(conn), "transfer-host", next.Name)
	r.send(next.conn, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{EvHostAssigned, "You are now the host"})
	r.broadcastRoomUpdate()
	return nil
}

// MuteAll forces the mute flag on every non-host member. Reversible.
func (r *Room) MuteAll(conn domain.ConnID, muted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	r.settings.Moderation.AllMuted = muted
	r.applyAllMuted(muted)
	r.logActivity(r.actorName(conn), "mute-all", "")
	r.broadcastRoomUpdate()
	return nil
}

// applyAllMuted flips member mute flags, host exempt. Caller holds mu.
func (r *Room) applyAllMuted(muted bool) {
	for _, m := range r.members {
		if m.ConnID == r.hostConn {
			continue
		}
		m.IsMuted = muted
	}
}

func (r *Room) ClearChat(conn domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	r.transcript = nil
	r.logActivity(r.actorName(conn), "clear-chat", "")
	r.broadcast(struct {
		Type string `json:"type"`
	}{EvChatCleared})
	return nil
}

// Close evicts everyone and marks the room dead. The returned connection
// ids let the coordinator unbind them from the registry; the registry entry
// itself is the coordinator's to delete.
func (r *Room) Close(conn domain.ConnID) ([]domain.ConnID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return nil, err
	}
	r.broadcast(struct {
		Type string `json:"type"`
	}{EvRoomClosed})

	evicted := make([]domain.ConnID, 0, len(r.members)+len(r.pending))
	for _, m := range r.members {
		evicted = append(evicted, m.ConnID)
	}
	for _, p := range r.pending {
		r.send(p.conn, struct {
			Type string `json:"type"`
		}{EvRoomClosed})
		evicted = append(evicted, p.ConnID)
	}
	r.members = nil
	r.pending = nil
	r.hostConn = ""
	r.hostClient = ""
	r.closed = true
	log.Info().Str("module", "core.room").Str("room", string(r.Key)).Msg("room closed by host")
	return evicted, nil
}

// ActivityLog returns the audit trail, host eyes only.
func (r *Room) ActivityLog(conn domain.ConnID) ([]domain.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return nil, err
	}
	out := make([]domain.ActivityEntry, len(r.activity))
	copy(out, r.activity)
	return out, nil
}

// ApproveJoin promotes a pending requester into the member list.
func (r *Room) ApproveJoin(conn, target domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	for i, p := range r.pending {
		if p.ConnID != target {
			continue
		}
		r.pending = append(r.pending[:i], r.pending[i+1:]...)
		ms := &memberState{Member: p.Member, conn: p.conn}
		ms.JoinedAt = r.now()
		if r.settings.Moderation.AllMuted {
			ms.IsMuted = true
		}
		r.members = append(r.members, ms)
		r.logActivity(r.actorName(conn), "approve-join", ms.Name)
		r.send(ms.conn, r.stateEvent(ms))
		r.broadcastExcept(ms.ConnID, struct {
			Type string    `json:"type"`
			User MemberDTO `json:"user"`
		}{EvUserJoined, r.memberDTO(ms.Member)})
		return nil
	}
	return ErrTargetNotFound
}

// RejectJoin discards a pending requester, relaying the reason to them.
func (r *Room) RejectJoin(conn, target domain.ConnID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireHost(conn); err != nil {
		return err
	}
	for i, p := range r.pending {
		if p.ConnID != target {
			continue
		}
		r.pending = append(r.pending[:i], r.pending[i+1:]...)
		r.logActivity(r.actorName(conn), "reject-join", p.Name)
		r.send(p.conn, struct {
			Type   string `json:"type"`
			Reason string `json:"reason,omitempty"`
		}{EvJoinRejected, reason})
		return nil
	}
	return ErrTargetNotFound
}

// broadcastRoomUpdate pushes the refreshed membership to everyone.
// Caller holds mu.
func (r *Room) broadcastRoomUpdate() {
	r.broadcast(struct {
		Type     string        `json:"type"`
		Users    []MemberDTO   `json:"users"`
		Host     domain.ConnID `json:"host"`
		IsLocked bool          `json:"isLocked"`
	}{EvRoomUpdate, r.membersSnapshot(), r.hostConn, r.settings.Access.Locked})
}

// actorName resolves a connection to a loggable display name.
// Caller holds mu.
func (r *Room) actorName(conn domain.ConnID) string {
	if m := r.findMember(conn); m != nil {
		return m.Name
	}
	return string(conn)
}
