package domain

import "time"

// Member represents one participant of a room. ConnID is refreshed on every
// reconnect; ClientID and join-derived history are preserved.
type Member struct {
	ConnID         ConnID
	ClientID       ClientID
	Name           string
	IsHost         bool
	IsMuted        bool
	IsCameraMuted  bool
	IsMicMuted     bool
	JoinedAt       time.Time
	IsDisconnected bool
	DisconnectedAt time.Time
	LastMessageAt  time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(conn ConnID, client ClientID, name string, joinedAt time.Time) *Member {
	return &Member{
		ConnID:   conn,
		ClientID: client,
		Name:     name,
		JoinedAt: joinedAt,
	}
}

// BanEntry matches future join attempts on either the stable client
// identity or the display name.
type BanEntry struct {
	ClientID ClientID  `json:"clientId,omitempty"`
	Name     string    `json:"name,omitempty"`
	BannedAt time.Time `json:"bannedAt"`
}

func (b BanEntry) Matches(client ClientID, name string) bool {
	if b.ClientID != "" && b.ClientID == client {
		return true
	}
	return b.Name != "" && b.Name == name
}

// ActivityEntry is one line of the host-visible audit log.
type ActivityEntry struct {
	At     time.Time `json:"at"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target,omitempty"`
}
