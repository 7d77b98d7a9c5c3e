// Package chat is the websocket adapter: it owns connections and their
// read/write pumps, parses inbound events and forwards them to the fan-out
// dispatcher.
package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/app"
	"github.com/dkeye/chatio/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const disconnectTimeout = 5 * time.Second

type Controller struct {
	Dispatch   *app.Dispatcher
	Flood      *FloodLimiter
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(dispatch *app.Dispatcher, flood *FloodLimiter, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Dispatch:   dispatch,
		Flood:      flood,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

// WsConn wraps one websocket connection with a buffered outbound channel.
// TrySend never blocks; a full channel means the client is too slow and the
// frame is dropped.
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

func (ctl *Controller) pingPeriod() time.Duration {
	if ctl.PingPeriod > 0 {
		return ctl.PingPeriod
	}
	return 54 * time.Second
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and starts the connection's pumps. Each
// connection gets a fresh id; membership is tracked per connection, not per
// browser, so two tabs are two sessions.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	cid := core.ConnID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	log.Info().Str("module", "chat").Str("cid", string(cid)).Str("client_token", c.GetString("client_token")).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
