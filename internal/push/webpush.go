// Package push delivers Web Push notifications signed with VAPID keys.
package push

import (
	"context"
	"fmt"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dkeye/chatio/internal/domain"
)

const defaultTTL = 30

// Sender implements core.PushSender on top of the Web Push protocol.
type Sender struct {
	publicKey  string
	privateKey string
	subscriber string
}

// NewSender builds a sender for the given VAPID key pair. subscriber is the
// contact URI (mailto:...) reported to push services.
func NewSender(publicKey, privateKey, subscriber string) *Sender {
	return &Sender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
	}
}

func (s *Sender) Send(ctx context.Context, sub domain.Subscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             defaultTTL,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}
