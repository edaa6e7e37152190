package domain

import "time"

type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionSeek  Action = "seek"
)

// Intent is a client-submitted playback change. SentAt is the client-side
// wall clock in unix milliseconds and is the causal ordering key: an intent
// older than the room's last applied one is dropped.
type Intent struct {
	Action Action  `json:"action"`
	Time   float64 `json:"time"`
	SentAt int64   `json:"sentAt"`
}

// PlaybackState is the single authoritative timeline of a room.
// CurrentTime is the position at LastSyncAt; while playing, the live
// position is CurrentTime plus elapsed wall time.
type PlaybackState struct {
	VideoID      string
	Platform     string
	CurrentTime  float64
	IsPlaying    bool
	Rate         float64
	Quality      string
	LastSyncAt   time.Time
	LastActionAt int64
}

func NewPlaybackState(now time.Time) PlaybackState {
	return PlaybackState{
		Rate:       1,
		Quality:    "auto",
		LastSyncAt: now,
	}
}

// PositionAt extrapolates the playhead to the given instant without
// mutating state.
func (p PlaybackState) PositionAt(now time.Time) float64 {
	if !p.IsPlaying {
		return p.CurrentTime
	}
	return p.CurrentTime + now.Sub(p.LastSyncAt).Seconds()*p.Rate
}
