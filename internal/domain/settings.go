package domain

// UnlimitedParticipants disables the capacity check.
const UnlimitedParticipants = 0

// RoomSettings is the host-editable room metadata.
type RoomSettings struct {
	Name            string `json:"name"`
	IsPrivate       bool   `json:"isPrivate"`
	MaxParticipants int    `json:"maxParticipants"`
	Persistent      bool   `json:"persistent"`
}

// AccessSettings gates who may enter the room.
type AccessSettings struct {
	RequireApproval bool   `json:"requireApproval"`
	Locked          bool   `json:"locked"`
	Password        string `json:"-"`
	HasPassword     bool   `json:"hasPassword"`
}

// ModerationSettings drives the chat policy pipeline and mute-all.
type ModerationSettings struct {
	AllowGuestChat   bool     `json:"allowGuestChat"`
	SlowModeSeconds  int      `json:"slowModeSeconds"`
	EmojiOnly        bool     `json:"emojiOnly"`
	FilterLinks      bool     `json:"filterLinks"`
	FilterWords      bool     `json:"filterWords"`
	BlockedWords     []string `json:"blockedWords"`
	AllMuted         bool     `json:"allMuted"`
}

// AppearanceSettings is shared cosmetic state, broadcast as-is.
type AppearanceSettings struct {
	Theme          string `json:"theme"`
	AccentColor    string `json:"accentColor"`
	ShowTimestamps bool   `json:"showTimestamps"`
}

// ChatDisplaySettings covers the per-room chat presentation knobs.
type ChatDisplaySettings struct {
	FontSize    int    `json:"fontSize"`
	Density     string `json:"density"`
	ShowAvatars bool   `json:"showAvatars"`
}

// NotificationSettings flags which room events clients should surface.
type NotificationSettings struct {
	OnJoin    bool `json:"onJoin"`
	OnLeave   bool `json:"onLeave"`
	OnMessage bool `json:"onMessage"`
}

// Settings groups every room configuration value with typed fields and
// explicit defaults. Clients patch whole sections, never single loose keys.
type Settings struct {
	Room          RoomSettings         `json:"room"`
	Access        AccessSettings       `json:"access"`
	Moderation    ModerationSettings   `json:"moderation"`
	Appearance    AppearanceSettings   `json:"appearance"`
	ChatDisplay   ChatDisplaySettings  `json:"chatDisplay"`
	Notifications NotificationSettings `json:"notifications"`
}

func DefaultSettings() Settings {
	return Settings{
		Room: RoomSettings{
			MaxParticipants: UnlimitedParticipants,
		},
		Moderation: ModerationSettings{
			AllowGuestChat: true,
		},
		Appearance: AppearanceSettings{
			Theme:          "dark",
			ShowTimestamps: true,
		},
		ChatDisplay: ChatDisplaySettings{
			FontSize:    14,
			Density:     "comfortable",
			ShowAvatars: true,
		},
		Notifications: NotificationSettings{
			OnJoin:    true,
			OnLeave:   true,
			OnMessage: true,
		},
	}
}
