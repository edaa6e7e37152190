package signal

import (
	"encoding/json"
	"errors"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

// handleIntent feeds a play/pause/seek into the sync engine. Stale and
// lock-gated intents drop silently: that is arbitration, not an error the
// client should see.
func (ctl *Controller) handleIntent(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type   string  `json:"type"`
		Action string  `json:"action"`
		Time   float64 `json:"time"`
		SentAt int64   `json:"sentAt"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	err := room.ApplyIntent(sid, domain.Intent{
		Action: domain.Action(p.Action),
		Time:   p.Time,
		SentAt: p.SentAt,
	})
	if err != nil && !errors.Is(err, core.ErrStaleIntent) && !errors.Is(err, core.ErrRoomLocked) {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleRequestSync(sid domain.ConnID, c *WsConn) {
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	ctl.sendJSON(c, room.RequestSync(sid))
}

func (ctl *Controller) handleSyncTime(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type        string  `json:"type"`
		CurrentTime float64 `json:"currentTime"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	// Non-host sync reports are ignored, not errors: every client sends
	// them on a timer and only the host's are authoritative.
	_ = room.SyncTime(sid, p.CurrentTime)
}

func (ctl *Controller) handleVideoChange(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		VideoID  string `json:"videoId"`
		Platform string `json:"platform"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.VideoID == "" {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.ChangeVideo(sid, p.VideoID, p.Platform); err != nil && !errors.Is(err, core.ErrRoomLocked) {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleRateChange(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type string  `json:"type"`
		Rate float64 `json:"rate"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.SetRate(sid, p.Rate); err != nil && !errors.Is(err, core.ErrRoomLocked) {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleQualityChange(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Quality string `json:"quality"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Quality == "" {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.SetQuality(sid, p.Quality); err != nil && !errors.Is(err, core.ErrRoomLocked) {
		ctl.reportErr(c, err)
	}
}
