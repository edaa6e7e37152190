package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

func (ctl *Controller) handleJoin(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		ClientID string `json:"clientId"`
		Name     string `json:"name"`
		Password string `json:"password"`
		AsHost   bool   `json:"asHost"`
		IsMuted  bool   `json:"isMuted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}

	identity, _ := ctl.Coord.Conns.Identity(sid)
	if p.Name == "" {
		p.Name = identity.Name
	}
	if p.ClientID == "" {
		// The verified user id is the natural stable identity when the
		// client does not supply its own.
		p.ClientID = identity.ID
	}

	_, err := ctl.Coord.JoinRoom(domain.RoomKey(p.Room), core.JoinParams{
		Conn:     c,
		ConnID:   sid,
		ClientID: domain.ClientID(p.ClientID),
		Name:     p.Name,
		Password: p.Password,
		AsHost:   p.AsHost,
		IsMuted:  p.IsMuted,
	})
	if err != nil {
		log.Info().Str("module", "signal").Str("sid", string(sid)).
			Str("room", p.Room).Str("code", core.CodeOf(err)).Msg("join refused")
		ctl.reportErr(c, err)
		return
	}
	// Admitted, reconnected and pending outcomes all announced by the room
	// itself; nothing more to send here.
}

func (ctl *Controller) handleLeave(sid domain.ConnID, c *WsConn) {
	ctl.Coord.LeaveRoom(sid)
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{"left"})
}

func (ctl *Controller) handleChangeName(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.ChangeName(sid, p.Name); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleToggleLock(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		IsLocked bool   `json:"isLocked"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.ToggleLock(sid, p.IsLocked); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleRoomSettings(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string              `json:"type"`
		Settings domain.RoomSettings `json:"settings"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdateRoomSettings(sid, p.Settings); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleHostControls(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string            `json:"type"`
		Controls core.HostControls `json:"controls"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdateHostControls(sid, p.Controls); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleAppearance(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type     string                    `json:"type"`
		Settings domain.AppearanceSettings `json:"settings"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdateAppearance(sid, p.Settings); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handlePersonalSettings(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type          string                      `json:"type"`
		ChatDisplay   domain.ChatDisplaySettings  `json:"chatDisplay"`
		Notifications domain.NotificationSettings `json:"notifications"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.UpdatePersonalSettings(sid, p.ChatDisplay, p.Notifications); err != nil {
		ctl.reportErr(c, err)
	}
}
