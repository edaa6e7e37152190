package core

import (
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

// JoinStatus tells the caller what the join attempt resulted in.
type JoinStatus int

const (
	JoinAdmitted JoinStatus = iota
	JoinReconnected
	JoinPendingApproval
)

// JoinParams carries everything a join attempt needs. ClientID falls back
// to ConnID when the client did not supply a stable identity.
type JoinParams struct {
	Conn     SignalConnection
	ConnID   domain.ConnID
	ClientID domain.ClientID
	Name     string
	Password string
	AsHost   bool
	IsMuted  bool
}

// Join runs the admission protocol: reconnection by stable identity first,
// then ban, lock, password, capacity and approval checks for new members.
// The very first member ever skips all checks and becomes host.
func (r *Room) Join(p JoinParams) (JoinStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRoomNotFound
	}
	if p.ClientID == "" {
		p.ClientID = domain.ClientID(p.ConnID)
	}
	if p.Name == "" {
		p.Name = "Guest_" + string(p.ConnID[:min(4, len(p.ConnID))])
	}

	if existing := r.findByClient(p.ClientID); existing != nil {
		r.reconnect(existing, p)
		return JoinReconnected, nil
	}

	first := len(r.members) == 0
	if !first {
		if err := r.admissionCheck(p); err != nil {
			return 0, err
		}
		if r.settings.Access.RequireApproval {
			r.enqueuePending(p)
			return JoinPendingApproval, nil
		}
	}

	// An admitted join supersedes any approval request the same client had
	// parked, e.g. when the host turned approval off mid-wait.
	r.dropPendingByClient(p.ClientID)

	m := domain.NewMember(p.ConnID, p.ClientID, p.Name, r.now())
	m.IsMuted = p.IsMuted
	ms := &memberState{Member: m, conn: p.Conn}
	r.members = append(r.members, ms)

	if first {
		m.IsHost = true
		r.hostConn = m.ConnID
		r.hostClient = m.ClientID
	}
	if r.settings.Moderation.AllMuted && !m.IsHost {
		m.IsMuted = true
	}

	r.send(ms.conn, r.stateEvent(ms))
	r.broadcastExcept(m.ConnID, struct {
		Type string    `json:"type"`
		User MemberDTO `json:"user"`
	}{EvUserJoined, r.memberDTO(m)})

	log.Info().Str("module", "core.room").Str("room", string(r.Key)).
		Str("sid", string(m.ConnID)).Str("name", m.Name).Bool("host", m.IsHost).Msg("member joined")
	return JoinAdmitted, nil
}

// admissionCheck applies the new-member gate in its fixed order.
// Caller holds mu.
func (r *Room) admissionCheck(p JoinParams) error {
	for _, b := range r.bans {
		if b.Matches(p.ClientID, p.Name) {
			return ErrBanned
		}
	}
	if r.settings.Access.Locked {
		return ErrRoomLocked
	}
	if pw := r.settings.Access.Password; pw != "" {
		if p.Password == "" {
			return ErrPasswordRequired
		}
		if p.Password != pw {
			return ErrWrongPassword
		}
	}
	if max := r.settings.Room.MaxParticipants; max != domain.UnlimitedParticipants && len(r.members) >= max {
		return ErrRoomFull
	}
	return nil
}

// reconnect refreshes the transient identity in place and restores host
// status when the stable identity matches the recorded host. Caller holds mu.
func (r *Room) reconnect(m *memberState, p JoinParams) {
	delete(r.typing, m.ConnID)
	delete(r.call, m.ConnID)

	m.ConnID = p.ConnID
	m.conn = p.Conn
	m.Name = p.Name
	m.IsMuted = p.IsMuted
	m.IsDisconnected = false

	if m.ClientID == r.hostClient {
		m.IsHost = true
		r.hostConn = m.ConnID
	}

	r.send(m.conn, r.stateEvent(m))
	r.broadcastExcept(m.ConnID, struct {
		Type string    `json:"type"`
		User MemberDTO `json:"user"`
	}{EvUserUpdated, r.memberDTO(m.Member)})

	log.Info().Str("module", "core.room").Str("room", string(r.Key)).
		Str("sid", string(m.ConnID)).Str("client", string(m.ClientID)).Bool("host", m.IsHost).Msg("member reconnected")
}

// enqueuePending parks the requester outside the member list and notifies
// the host. A client already waiting has its entry refreshed in place, so
// retrying the join never creates a second entry. Caller holds mu.
func (r *Room) enqueuePending(p JoinParams) {
	for _, prev := range r.pending {
		if prev.ClientID != p.ClientID {
			continue
		}
		prev.ConnID = p.ConnID
		prev.Name = p.Name
		prev.conn = p.Conn
		r.send(p.Conn, struct {
			Type string `json:"type"`
		}{EvJoinPending})
		return
	}

	m := domain.NewMember(p.ConnID, p.ClientID, p.Name, r.now())
	m.IsMuted = p.IsMuted
	r.pending = append(r.pending, &pendingState{Member: m, conn: p.Conn})

	if host := r.findMember(r.hostConn); host != nil {
		r.send(host.conn, struct {
			Type string    `json:"type"`
			User MemberDTO `json:"user"`
		}{EvJoinRequest, r.memberDTO(m)})
	}
	r.send(p.Conn, struct {
		Type string `json:"type"`
	}{EvJoinPending})

	log.Info().Str("module", "core.room").Str("room", string(r.Key)).
		Str("sid", string(p.ConnID)).Msg("join pending approval")
}

// Leave removes the member (or pending requester) for good. It reports
// whether the room is now empty so the registry can drop it.
func (r *Room) Leave(conn domain.ConnID) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.removePending(conn) {
		return len(r.members) == 0
	}
	m := r.findMember(conn)
	if m == nil {
		return len(r.members) == 0
	}
	r.removeMember(m, EvUserLeft)
	return len(r.members) == 0
}

// removeMember drops the member, reassigns the host when needed and
// broadcasts the given leave-style event. Caller holds mu.
func (r *Room) removeMember(m *memberState, event string) {
	delete(r.typing, m.ConnID)
	if _, ok := r.call[m.ConnID]; ok {
		delete(r.call, m.ConnID)
		defer r.broadcastCall()
	}

	for i, other := range r.members {
		if other == m {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}

	if m.ConnID == r.hostConn {
		r.promoteNextHost()
	}

	r.broadcast(struct {
		Type string        `json:"type"`
		ID   domain.ConnID `json:"id"`
		Name string        `json:"name"`
	}{event, m.ConnID, m.Name})

	log.Info().Str("module", "core.room").Str("room", string(r.Key)).
		Str("sid", string(m.ConnID)).Str("event", event).Msg("member removed")
}

// promoteNextHost hands the room to the first remaining connected member.
// Caller holds mu.
func (r *Room) promoteNextHost() {
	r.hostConn = ""
	r.hostClient = ""
	for _, m := range r.members {
		if m.IsDisconnected {
			continue
		}
		m.IsHost = true
		r.hostConn = m.ConnID
		r.hostClient = m.ClientID
		r.send(m.conn, struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{EvHostAssigned, "You are now the host"})
		r.broadcast(struct {
			Type string        `json:"type"`
			ID   domain.ConnID `json:"id"`
		}{EvHostChanged, m.ConnID})
		log.Info().Str("module", "core.room").Str("room", string(r.Key)).
			Str("sid", string(m.ConnID)).Msg("new host assigned")
		return
	}
}

func (r *Room) removePending(conn domain.ConnID) bool {
	for i, p := range r.pending {
		if p.ConnID == conn {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) dropPendingByClient(client domain.ClientID) {
	for i, p := range r.pending {
		if p.ClientID == client {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// ChangeName renames the member and tells the room.
func (r *Room) ChangeName(conn domain.ConnID, name string) error {
	if err := domain.ValidName(name); err != nil {
		return ErrBadPayload.With(err.Error())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(conn)
	if m == nil {
		return ErrTargetNotFound
	}
	m.Name = name
	r.broadcast(struct {
		Type string    `json:"type"`
		User MemberDTO `json:"user"`
	}{EvUserUpdated, r.memberDTO(m.Member)})
	return nil
}
