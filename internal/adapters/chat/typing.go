package chat

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/core"
)

// handleTyping relays starttype/stoptype payloads to the rest of the room.
// The inner msg is passed through untouched.
func (ctl *Controller) handleTyping(cid core.ConnID, conn *WsConn, data []byte) {
	type typingPayload struct {
		Type string          `json:"type"`
		Msg  json.RawMessage `json:"msg"`
	}
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad typing payload")
		return
	}
	ctl.Dispatch.HandleTyping(cid, p.Msg)
}
