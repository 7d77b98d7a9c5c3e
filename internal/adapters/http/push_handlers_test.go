package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/chatio/internal/app"
	"github.com/dkeye/chatio/internal/domain"
	"github.com/dkeye/chatio/internal/store"
)

type recordingPush struct {
	mu   sync.Mutex
	sent []domain.Subscription
}

func (p *recordingPush) Send(_ context.Context, sub domain.Subscription, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, sub)
	return nil
}

type noopMessages struct{}

func (noopMessages) SaveMessage(context.Context, domain.ChatMessage) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemorySubscriptions, *recordingPush) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	subs := store.NewMemorySubscriptions()
	pusher := &recordingPush{}
	handler := &PushHandler{
		Subs: subs,
		Dispatch: &app.Dispatcher{
			Registry: app.NewRegistry(),
			Subs:     subs,
			Messages: noopMessages{},
			Push:     pusher,
			Policy:   app.RoomPolicy{},
		},
		PublicKey: "test-public-key",
	}

	r := gin.New()
	r.POST("/register-push-device", handler.Register)
	r.DELETE("/deregister-push-device", handler.Deregister)
	r.POST("/send-notification", handler.SendNotification)
	r.GET("/api/v1/vapid-public-key", handler.VapidPublicKey)
	return r, subs, pusher
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const bobDevice = `{
	"subscription": {
		"endpoint": "https://push/b",
		"keys": {"p256dh": "p256dh-key", "auth": "auth-key"}
	},
	"name": "Bob",
	"room": "general"
}`

func TestRegisterPushDevice(t *testing.T) {
	r, subs, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/register-push-device", bobDevice)
	assert.Equal(t, http.StatusOK, w.Code)

	// Re-registering the same device is not an error and adds nothing.
	w = doJSON(r, http.MethodPost, "/register-push-device", bobDevice)
	assert.Equal(t, http.StatusOK, w.Code)

	all, err := subs.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Bob", all[0].Username)
	assert.Equal(t, "p256dh-key", all[0].P256DH)
}

func TestRegisterPushDeviceBadPayload(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/register-push-device", `{"name": "Bob"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/register-push-device", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeregisterPushDevice(t *testing.T) {
	r, subs, _ := newTestRouter(t)

	doJSON(r, http.MethodPost, "/register-push-device", bobDevice)

	w := doJSON(r, http.MethodDelete, "/deregister-push-device", bobDevice)
	assert.Equal(t, http.StatusOK, w.Code)

	all, err := subs.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	// Second delete hits nothing and still succeeds.
	w = doJSON(r, http.MethodDelete, "/deregister-push-device", bobDevice)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSendNotification(t *testing.T) {
	r, _, pusher := newTestRouter(t)

	doJSON(r, http.MethodPost, "/register-push-device", bobDevice)

	body := `{"msg": {"username": "Alice", "text": "hello", "room": "general"}}`
	w := doJSON(r, http.MethodPost, "/send-notification", body)
	assert.Equal(t, http.StatusAccepted, w.Code)

	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "Bob", pusher.sent[0].Username)
}

func TestSendNotificationBadPayload(t *testing.T) {
	r, _, pusher := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/send-notification", `{"msg": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, pusher.sent)
}

func TestVapidPublicKey(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/vapid-public-key", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test-public-key")
}
