package core

import (
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

// ApplyIntent arbitrates one play/pause/seek intent into the authoritative
// timeline.
//
// Ordering: intents are totally ordered by the client-supplied SentAt; an
// intent with SentAt strictly below the room's last applied action is
// dropped as stale (silent no-op, the caller must not surface it). Equal
// timestamps resolve last-write-wins by arrival order — a deliberate,
// tested choice.
//
// Time resolution: the host's time is authoritative; a guest seek is
// trusted verbatim (fighting explicit user intent is worse than a small
// skew); guest play/pause keeps the server's extrapolated position so a
// lagging client cannot pull the room backwards.
func (r *Room) ApplyIntent(conn domain.ConnID, intent domain.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.settings.Access.Locked && !r.isHost(conn) {
		return ErrRoomLocked
	}
	if intent.SentAt < r.playback.LastActionAt {
		log.Debug().Str("module", "core.playback").Str("room", string(r.Key)).
			Int64("sent_at", intent.SentAt).Int64("last_action", r.playback.LastActionAt).Msg("stale intent dropped")
		return ErrStaleIntent
	}

	now := r.now()
	applied := intent.Time
	if !r.isHost(conn) && intent.Action != domain.ActionSeek {
		applied = r.playback.PositionAt(now)
	}

	switch intent.Action {
	case domain.ActionPlay:
		r.playback.IsPlaying = true
	case domain.ActionPause:
		r.playback.IsPlaying = false
	case domain.ActionSeek:
		// seek never changes the play state
	default:
		return ErrBadPayload.With("unknown playback action")
	}
	r.playback.CurrentTime = applied
	r.playback.LastActionAt = intent.SentAt
	r.playback.LastSyncAt = now

	// Echo to everyone, sender included, so the acting client gets the
	// authoritative resolution of its own intent.
	r.broadcast(PlaybackEvent{
		Type:        EvPlayback,
		IsPlaying:   r.playback.IsPlaying,
		CurrentTime: r.playback.CurrentTime,
		Sender:      conn,
	})
	return nil
}

// RequestSync answers with the extrapolated state. Read-only and safe to
// call arbitrarily often.
func (r *Room) RequestSync(conn domain.ConnID) SyncResponseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return SyncResponseEvent{
		Type:        EvSyncResponse,
		VideoID:     r.playback.VideoID,
		Platform:    r.playback.Platform,
		CurrentTime: r.playback.PositionAt(r.now()),
		IsPlaying:   r.playback.IsPlaying,
		IsLocked:    r.settings.Access.Locked,
	}
}

// ChangeVideo swaps the video and restarts the timeline from zero, playing.
func (r *Room) ChangeVideo(conn domain.ConnID, videoID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings.Access.Locked && !r.isHost(conn) {
		return ErrRoomLocked
	}
	r.playback.VideoID = videoID
	r.playback.Platform = platform
	r.playback.CurrentTime = 0
	r.playback.IsPlaying = true
	r.playback.LastSyncAt = r.now()

	r.broadcastExcept(conn, struct {
		Type     string `json:"type"`
		VideoID  string `json:"videoId"`
		Platform string `json:"platform"`
	}{EvVideoChange, videoID, platform})

	log.Info().Str("module", "core.playback").Str("room", string(r.Key)).
		Str("video", platform+"/"+videoID).Msg("video changed")
	return nil
}

// SetRate changes the playback rate. The running extrapolation is settled
// at the old rate first so the playhead does not jump.
func (r *Room) SetRate(conn domain.ConnID, rate float64) error {
	if rate <= 0 || rate > 4 {
		return ErrBadPayload.With("playback rate out of range")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings.Access.Locked && !r.isHost(conn) {
		return ErrRoomLocked
	}
	now := r.now()
	r.playback.CurrentTime = r.playback.PositionAt(now)
	r.playback.LastSyncAt = now
	r.playback.Rate = rate

	r.broadcastExcept(conn, struct {
		Type string  `json:"type"`
		Rate float64 `json:"rate"`
	}{EvPlaybackRate, rate})
	return nil
}

func (r *Room) SetQuality(conn domain.ConnID, quality string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings.Access.Locked && !r.isHost(conn) {
		return ErrRoomLocked
	}
	r.playback.Quality = quality

	r.broadcastExcept(conn, struct {
		Type    string `json:"type"`
		Quality string `json:"quality"`
	}{EvQuality, quality})
	return nil
}

// SyncTime is the host's periodic clock correction. It refines the
// playhead without bumping the action ordering key: it is a measurement,
// not an intent.
func (r *Room) SyncTime(conn domain.ConnID, currentTime float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isHost(conn) {
		return ErrNotHost
	}
	r.playback.CurrentTime = currentTime
	r.playback.LastSyncAt = r.now()

	r.broadcastExcept(conn, struct {
		Type        string  `json:"type"`
		CurrentTime float64 `json:"currentTime"`
	}{EvSyncTime, currentTime})
	return nil
}
