package core

import (
	"github.com/tverdyi/watchroom/internal/domain"
)

// Frame is a marshaled outbound event.
type Frame []byte

// SignalConnection abstracts the messaging transport of one connection.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Outbound event types. The audience of each event is part of the operation
// contract: some echo to the sender, some deliberately exclude it.
const (
	EvRoomState    = "room-state"
	EvRoomUpdate   = "room-state-update"
	EvUserJoined   = "user-joined"
	EvUserUpdated  = "user-updated"
	EvUserLeft     = "user-left"
	EvKicked       = "kicked"
	EvBanned       = "banned"
	EvHostAssigned = "host-assigned"
	EvHostChanged  = "host-changed"
	EvJoinPending  = "join-pending"
	EvJoinRequest  = "join-request"
	EvJoinRejected = "join-rejected"

	EvPlayback     = "playback-update"
	EvSyncResponse = "sync-response"
	EvSyncTime     = "sync-time"
	EvVideoChange  = "video-change"
	EvPlaybackRate = "playback-rate"
	EvQuality      = "quality-change"

	EvMessage     = "receive-message"
	EvChatCleared = "chat-cleared"
	EvReaction    = "reaction"

	EvRoomLocked   = "room-locked"
	EvRoomSettings = "room-settings"
	EvHostControls = "host-controls"
	EvAppearance   = "appearance"
	EvPersonal     = "personal-settings"

	EvTyping      = "typing-update"
	EvCallMembers = "call-members"
	EvOffer       = "webrtc-offer"
	EvAnswer      = "webrtc-answer"
	EvCandidate   = "webrtc-ice-candidate"

	EvRoomClosed  = "room-closed"
	EvActivityLog = "activity-log"
	EvError       = "error"
	EvPong        = "pong"
)

// MemberDTO is a read-only member view for the wire (no transport fields).
type MemberDTO struct {
	ID             domain.ConnID   `json:"id"`
	ClientID       domain.ClientID `json:"clientId"`
	Name           string          `json:"name"`
	IsHost         bool            `json:"isHost"`
	IsMuted        bool            `json:"isMuted"`
	IsCameraMuted  bool            `json:"isCameraMuted"`
	IsMicMuted     bool            `json:"isMicMuted"`
	JoinedAt       int64           `json:"joinedAt"`
	IsDisconnected bool            `json:"isDisconnected"`
}

// PlaybackDTO is the playback state as clients see it.
type PlaybackDTO struct {
	VideoID     string  `json:"videoId"`
	Platform    string  `json:"platform"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	Rate        float64 `json:"playbackRate"`
	Quality     string  `json:"quality"`
}

// RoomStateEvent is the full snapshot sent to a joining or reconnecting
// connection.
type RoomStateEvent struct {
	Type     string          `json:"type"`
	Room     domain.RoomKey  `json:"room"`
	UserID   domain.ConnID   `json:"userId"`
	IsHost   bool            `json:"isHost"`
	Host     domain.ConnID   `json:"host"`
	Users    []MemberDTO     `json:"users"`
	Pending  []MemberDTO     `json:"pendingUsers,omitempty"`
	Playback PlaybackDTO     `json:"playback"`
	Settings domain.Settings `json:"settings"`
}

// PlaybackEvent acknowledges an applied intent to the whole room,
// sender included.
type PlaybackEvent struct {
	Type        string        `json:"type"`
	IsPlaying   bool          `json:"isPlaying"`
	CurrentTime float64       `json:"currentTime"`
	Sender      domain.ConnID `json:"sender"`
}

// SyncResponseEvent answers a request-sync without mutating anything.
type SyncResponseEvent struct {
	Type        string  `json:"type"`
	VideoID     string  `json:"videoId"`
	Platform    string  `json:"platform"`
	CurrentTime float64 `json:"currentTime"`
	IsPlaying   bool    `json:"isPlaying"`
	IsLocked    bool    `json:"isLocked"`
}

type MessageEvent struct {
	Type      string        `json:"type"`
	ID        string        `json:"id"`
	UserID    domain.ConnID `json:"userId"`
	UserName  string        `json:"userName"`
	Text      string        `json:"text"`
	Timestamp int64         `json:"timestamp"`
}

type TypingEvent struct {
	Type  string      `json:"type"`
	Users []TypingDTO `json:"users"`
}

type TypingDTO struct {
	ID   domain.ConnID `json:"id"`
	Name string        `json:"name"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
