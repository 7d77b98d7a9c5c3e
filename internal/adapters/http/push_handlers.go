package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/app"
	"github.com/dkeye/chatio/internal/core"
	"github.com/dkeye/chatio/internal/domain"
)

// PushHandler is the thin HTTP surface over the subscription registry and
// the dispatcher's notify pass.
type PushHandler struct {
	Subs      core.SubscriptionStore
	Dispatch  *app.Dispatcher
	PublicKey string
}

type subscriptionPayload struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256DH string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type deviceRequest struct {
	Subscription subscriptionPayload `json:"subscription"`
	Name         string              `json:"name"`
	Room         string              `json:"room"`
}

func (r deviceRequest) valid() bool {
	return r.Subscription.Endpoint != "" && r.Name != "" && r.Room != ""
}

// Register handles POST /register-push-device. Registration is idempotent:
// re-subscribing an already known (endpoint, name, room) is not an error.
func (h *PushHandler) Register(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid subscription"})
		return
	}

	sub := domain.Subscription{
		Endpoint: req.Subscription.Endpoint,
		P256DH:   req.Subscription.Keys.P256DH,
		Auth:     req.Subscription.Keys.Auth,
		Username: req.Name,
		Room:     req.Room,
	}
	created, err := h.Subs.Register(c.Request.Context(), sub)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("register subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register subscription"})
		return
	}
	if created {
		log.Info().Str("module", "adapters.http").Str("name", req.Name).Str("room", req.Room).Msg("subscribed to room notifications")
	} else {
		log.Info().Str("module", "adapters.http").Str("name", req.Name).Str("room", req.Room).Msg("already subscribed to room notifications")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Deregister handles DELETE /deregister-push-device. A miss is a no-op.
func (h *PushHandler) Deregister(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid subscription"})
		return
	}

	key := domain.SubscriptionKey{
		Endpoint: req.Subscription.Endpoint,
		Username: req.Name,
		Room:     req.Room,
	}
	if err := h.Subs.Deregister(c.Request.Context(), key); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("deregister subscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deregister subscription"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("name", req.Name).Str("room", req.Room).Msg("unsubscribed from room notifications")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendNotification handles POST /send-notification: one notify pass over the
// current subscription snapshot for the given message.
func (h *PushHandler) SendNotification(c *gin.Context) {
	var req struct {
		Msg domain.ChatMessage `json:"msg"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Msg.Room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid msg"})
		return
	}

	h.Dispatch.Notify(c.Request.Context(), req.Msg)
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

// VapidPublicKey exposes the server's VAPID public key so clients can build
// their push subscription.
func (h *PushHandler) VapidPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.PublicKey})
}
