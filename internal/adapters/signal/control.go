package signal

import "github.com/tverdyi/watchroom/internal/core"

func (ctl *Controller) handlePing(c *WsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: core.EvPong,
	}
	ctl.sendJSON(c, resp)
}
