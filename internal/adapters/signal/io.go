package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid domain.ConnID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleEvent(sid, c, data)
		}
	}
}

// handleEvent is the single dispatch point: one handler per inbound event
// type. A malformed payload fails that one event and leaves room state
// untouched.
func (ctl *Controller) handleEvent(sid domain.ConnID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}

	switch env.Type {
	case "join-room":
		ctl.handleJoin(sid, c, data)
	case "leave-room":
		ctl.handleLeave(sid, c)
	case "change-name":
		ctl.handleChangeName(sid, c, data)

	case "playback-intent":
		ctl.handleIntent(sid, c, data)
	case "request-sync":
		ctl.handleRequestSync(sid, c)
	case "sync-time":
		ctl.handleSyncTime(sid, c, data)
	case "video-change":
		ctl.handleVideoChange(sid, c, data)
	case "playback-rate-change":
		ctl.handleRateChange(sid, c, data)
	case "quality-change":
		ctl.handleQualityChange(sid, c, data)

	case "send-message":
		ctl.handleMessage(sid, c, data)
	case "send-reaction":
		ctl.handleReaction(sid, c, data)

	case "toggle-lock":
		ctl.handleToggleLock(sid, c, data)
	case "room-settings-change":
		ctl.handleRoomSettings(sid, c, data)
	case "host-controls-change":
		ctl.handleHostControls(sid, c, data)
	case "appearance-change":
		ctl.handleAppearance(sid, c, data)
	case "personal-settings-change":
		ctl.handlePersonalSettings(sid, c, data)

	case "kick-user":
		ctl.handleKick(sid, c, data)
	case "ban-user":
		ctl.handleBan(sid, c, data)
	case "transfer-host":
		ctl.handleTransferHost(sid, c, data)
	case "mute-all":
		ctl.handleMuteAll(sid, c, data)
	case "clear-chat":
		ctl.handleClearChat(sid, c)
	case "close-room":
		ctl.handleCloseRoom(sid, c)
	case "get-activity-log":
		ctl.handleActivityLog(sid, c)
	case "approve-join":
		ctl.handleApproveJoin(sid, c, data)
	case "reject-join":
		ctl.handleRejectJoin(sid, c, data)

	case "typing-start":
		ctl.handleTyping(sid, c, true)
	case "typing-stop":
		ctl.handleTyping(sid, c, false)
	case "update-mute-status":
		ctl.handleMuteStatus(sid, c, data)
	case "update-camera-status":
		ctl.handleCameraStatus(sid, c, data)
	case "media-state-change":
		ctl.handleMediaState(sid, c, data)

	case "join-video-call":
		ctl.handleJoinCall(sid, c)
	case "leave-video-call":
		ctl.handleLeaveCall(sid, c)
	case "webrtc-offer":
		ctl.handleOffer(sid, c, data)
	case "webrtc-answer":
		ctl.handleAnswer(sid, c, data)
	case "webrtc-ice-candidate":
		ctl.handleCandidate(sid, c, data)

	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// reportErr relays a typed rejection to the actor only. Stale intents stay
// silent: dropping them is the ordering contract, not a failure.
func (ctl *Controller) reportErr(c *WsConn, err error) {
	if err == nil || errors.Is(err, core.ErrStaleIntent) {
		return
	}
	ctl.sendJSON(c, core.ErrorEvent{
		Type:    core.EvError,
		Code:    core.CodeOf(err),
		Message: core.MessageOf(err),
	})
}

// room resolves the sender's current room; a miss is reported to the
// sender only.
func (ctl *Controller) room(sid domain.ConnID, c *WsConn) (*core.Room, bool) {
	room, err := ctl.Coord.Room(sid)
	if err != nil {
		ctl.reportErr(c, err)
		return nil, false
	}
	return room, true
}
