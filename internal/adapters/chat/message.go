package chat

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/core"
)

func (ctl *Controller) handleChatMessage(ctx context.Context, cid core.ConnID, conn *WsConn, data []byte) {
	type messagePayload struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad chatMessage payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}
	if p.Text == "" {
		return
	}

	if ctl.Flood != nil && !ctl.Flood.Allow(cid) {
		log.Warn().Str("module", "chat").Str("cid", string(cid)).Msg("message rate limit hit, dropping")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "slow down",
		})
		return
	}

	ctl.Dispatch.HandleMessage(ctx, cid, p.Text)
}
