package signal

import (
	"encoding/json"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

func (ctl *Controller) handleTyping(sid domain.ConnID, c *WsConn, typing bool) {
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.SetTyping(sid, typing); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleMuteStatus(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		IsMuted bool   `json:"isMuted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdateMediaState(sid, &p.IsMuted, nil, nil); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleCameraStatus(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type          string `json:"type"`
		IsCameraMuted bool   `json:"isCameraMuted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdateMediaState(sid, nil, &p.IsCameraMuted, nil); err != nil {
		ctl.reportErr(c, err)
	}
}

// handleMediaState is the combined flag update a client sends after
// toggling several devices at once.
func (ctl *Controller) handleMediaState(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type          string `json:"type"`
		IsMuted       *bool  `json:"isMuted"`
		IsCameraMuted *bool  `json:"isCameraMuted"`
		IsMicMuted    *bool  `json:"isMicMuted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdateMediaState(sid, p.IsMuted, p.IsCameraMuted, p.IsMicMuted); err != nil {
		ctl.reportErr(c, err)
	}
}
