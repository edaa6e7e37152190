package signal

import (
	"encoding/json"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

// targetPayload covers every host action aimed at one member.
type targetPayload struct {
	Type   string `json:"type"`
	Target string `json:"target"`
	Reason string `json:"reason,omitempty"`
}

func (ctl *Controller) decodeTarget(c *WsConn, data []byte) (targetPayload, bool) {
	var p targetPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" {
		ctl.reportErr(c, core.ErrBadPayload)
		return p, false
	}
	return p, true
}

func (ctl *Controller) handleKick(sid domain.ConnID, c *WsConn, data []byte) {
	p, ok := ctl.decodeTarget(c, data)
	if !ok {
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.Kick(sid, domain.ConnID(p.Target)); err != nil {
		ctl.reportErr(c, err)
		return
	}
	ctl.Coord.Conns.ClearRoom(domain.ConnID(p.Target))
}

func (ctl *Controller) handleBan(sid domain.ConnID, c *WsConn, data []byte) {
	p, ok := ctl.decodeTarget(c, data)
	if !ok {
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.Ban(sid, domain.ConnID(p.Target)); err != nil {
		ctl.reportErr(c, err)
		return
	}
	ctl.Coord.Conns.ClearRoom(domain.ConnID(p.Target))
}

func (ctl *Controller) handleTransferHost(sid domain.ConnID, c *WsConn, data []byte) {
	p, ok := ctl.decodeTarget(c, data)
	if !ok {
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.TransferHost(sid, domain.ConnID(p.Target)); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleMuteAll(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type  string `json:"type"`
		Muted bool   `json:"muted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.MuteAll(sid, p.Muted); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleClearChat(sid domain.ConnID, c *WsConn) {
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.ClearChat(sid); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleCloseRoom(sid domain.ConnID, c *WsConn) {
	if err := ctl.Coord.CloseRoom(sid); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleActivityLog(sid domain.ConnID, c *WsConn) {
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	entries, err := room.ActivityLog(sid)
	if err != nil {
		ctl.reportErr(c, err)
		return
	}
	ctl.sendJSON(c, struct {
		Type    string                 `json:"type"`
		Entries []domain.ActivityEntry `json:"entries"`
	}{core.EvActivityLog, entries})
}

func (ctl *Controller) handleApproveJoin(sid domain.ConnID, c *WsConn, data []byte) {
	p, ok := ctl.decodeTarget(c, data)
	if !ok {
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.ApproveJoin(sid, domain.ConnID(p.Target)); err != nil {
		ctl.reportErr(c, err)
		return
	}
	// The promoted member's connection now belongs to this room.
	ctl.Coord.Conns.SetRoom(domain.ConnID(p.Target), room.Key)
}

func (ctl *Controller) handleRejectJoin(sid domain.ConnID, c *WsConn, data []byte) {
	p, ok := ctl.decodeTarget(c, data)
	if !ok {
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.RejectJoin(sid, domain.ConnID(p.Target), p.Reason); err != nil {
		ctl.reportErr(c, err)
		return
	}
	ctl.Coord.Conns.ClearRoom(domain.ConnID(p.Target))
}
