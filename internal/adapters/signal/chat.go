package signal

import (
	"encoding/json"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

func (ctl *Controller) handleMessage(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.SendMessage(sid, p.Text); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleReaction(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.React(sid, p.Emoji); err != nil {
		ctl.reportErr(c, err)
	}
}
