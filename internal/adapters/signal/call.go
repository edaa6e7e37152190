package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

func (ctl *Controller) handleJoinCall(sid domain.ConnID, c *WsConn) {
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.JoinCall(sid); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleLeaveCall(sid domain.ConnID, c *WsConn) {
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	if err := room.LeaveCall(sid); err != nil {
		ctl.reportErr(c, err)
	}
}

// Offer/answer relay: the SDP travels verbatim to the named target; the
// coordinator checks only that it is shaped like a session description.
func (ctl *Controller) handleOffer(sid domain.ConnID, c *WsConn, data []byte) {
	ctl.relaySDP(sid, c, data, core.EvOffer, webrtc.SDPTypeOffer)
}

func (ctl *Controller) handleAnswer(sid domain.ConnID, c *WsConn, data []byte) {
	ctl.relaySDP(sid, c, data, core.EvAnswer, webrtc.SDPTypeAnswer)
}

func (ctl *Controller) relaySDP(sid domain.ConnID, c *WsConn, data []byte, event string, sdpType webrtc.SDPType) {
	var p struct {
		Type   string `json:"type"`
		Target string `json:"target"`
		SDP    string `json:"sdp"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" || p.SDP == "" {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}
	desc := webrtc.SessionDescription{Type: sdpType, SDP: p.SDP}
	if err := room.Relay(sid, domain.ConnID(p.Target), event, desc); err != nil {
		ctl.reportErr(c, err)
	}
}

func (ctl *Controller) handleCandidate(sid domain.ConnID, c *WsConn, data []byte) {
	var p struct {
		Type          string `json:"type"`
		Target        string `json:"target"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Target == "" {
		ctl.reportErr(c, core.ErrBadPayload)
		return
	}
	room, ok := ctl.room(sid, c)
	if !ok {
		return
	}

	cand := webrtc.ICECandidateInit{Candidate: p.Candidate}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex

	if err := room.Relay(sid, domain.ConnID(p.Target), core.EvCandidate, cand); err != nil {
		log.Debug().Str("module", "signal").Str("sid", string(sid)).Str("target", p.Target).Msg("candidate relay miss")
		ctl.reportErr(c, err)
	}
}
