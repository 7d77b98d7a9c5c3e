// Package core declares the contracts between the relay engine and its
// collaborators. The engine never touches transport or storage directly.
package core

import (
	"context"

	"github.com/dkeye/chatio/internal/domain"
)

// Frame is a raw outbound payload, already JSON-encoded.
type Frame []byte

// ConnID identifies one live client connection.
type ConnID string

// Connection abstracts the client messaging transport.
// Owned by the adapter; the adapter must Close() it.
type Connection interface {
	TrySend(Frame) error
	Close()
}

// MessageStore persists chat messages. Write-only from the engine's view;
// history retrieval belongs to a different surface.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg domain.ChatMessage) error
}

// SubscriptionStore tracks push subscriptions behind a pluggable backing.
// Register is idempotent on the subscription key and reports whether a new
// entry was created. Deregister and DeregisterAll are no-ops when nothing
// matches.
type SubscriptionStore interface {
	Register(ctx context.Context, sub domain.Subscription) (bool, error)
	Deregister(ctx context.Context, key domain.SubscriptionKey) error
	DeregisterAll(ctx context.Context, username, room string) error
	All(ctx context.Context) ([]domain.Subscription, error)
}

// PushSender delivers one condensed notification payload to one subscription.
type PushSender interface {
	Send(ctx context.Context, sub domain.Subscription, payload []byte) error
}
