// Package signal is the websocket transport of the room coordinator: it
// upgrades admitted connections, decodes the {"type": ...} envelope and
// dispatches to the coordinator. All room semantics live in core; this
// package only translates.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/app"
	"github.com/tverdyi/watchroom/internal/config"
	"github.com/tverdyi/watchroom/internal/core"
	"github.com/tverdyi/watchroom/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Coord *app.Coordinator
	cfg   *config.Config
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{Coord: coord, cfg: cfg}
}

// WsConn implements core.SignalConnection over one websocket. Delivery is
// non-blocking: a full send buffer drops the frame instead of stalling the
// room authority.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades a gate-admitted request and runs the connection until
// it drops, at which point the grace-period machinery takes over.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	// The gate middleware stored the vetted identity under this key.
	v, ok := c.Get("identity")
	identity, _ := v.(domain.Identity)
	if !ok || identity.ID == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.cfg.ReadLimit)
	}

	sid := domain.ConnID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}
	ctl.Coord.Conns.Bind(sid, identity, conn)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", identity.ID).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		ctl.writePump(ctx, conn)
	}()
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
		ctl.Coord.Disconnect(sid)
	}()
}
