package chat

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/core"
	"github.com/dkeye/chatio/internal/domain"
)

func (ctl *Controller) handleJoinRoom(cid core.ConnID, conn *WsConn, data []byte) {
	type joinPayload struct {
		Type     string `json:"type"`
		Username string `json:"username"`
		Room     string `json:"room"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("bad joinRoom payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	sess, err := domain.NewSession(p.Username, p.Room)
	if err != nil {
		log.Warn().Err(err).Str("module", "chat").Str("cid", string(cid)).Msg("joinRoom rejected")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": err.Error(),
		})
		return
	}

	log.Info().Str("module", "chat").Str("cid", string(cid)).Str("username", sess.Username).Str("room", sess.Room).Msg("joinRoom")
	ctl.Dispatch.HandleJoin(cid, conn, sess)
}
