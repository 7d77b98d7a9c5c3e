package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "chat").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "chat").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid core.ConnID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "chat").Str("cid", string(cid)).Msg("readPump closing")
		cancel()
		ctl.disconnect(cid)
		c.Close()
	}()

	readWait := ctl.pingPeriod() * 2
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "chat").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(ctx, cid, c, data)
		}
	}
}

// disconnect runs the leave transition with its own deadline; the connection
// context is already canceled by the time cleanup happens.
func (ctl *Controller) disconnect(cid core.ConnID) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	ctl.Dispatch.HandleDisconnect(ctx, cid)
	if ctl.Flood != nil {
		ctl.Flood.Forget(cid)
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, cid core.ConnID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad json")
		return
	}

	switch env.Type {
	case "joinRoom":
		ctl.handleJoinRoom(cid, c, data)
	case "chatMessage":
		ctl.handleChatMessage(ctx, cid, c, data)
	case "starttype", "stoptype":
		ctl.handleTyping(cid, c, data)
	default:
		log.Warn().Str("module", "chat").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
