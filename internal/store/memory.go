// Package store provides the pluggable backings for push subscriptions and
// chat message persistence: a fast in-memory variant that is lost on restart
// and a durable SQLite variant.
package store

import (
	"context"
	"sync"

	"github.com/dkeye/chatio/internal/domain"
)

// MemorySubscriptions keeps subscriptions in process memory.
type MemorySubscriptions struct {
	mu   sync.Mutex
	subs []domain.Subscription
}

func NewMemorySubscriptions() *MemorySubscriptions {
	return &MemorySubscriptions{}
}

func (m *MemorySubscriptions) Register(_ context.Context, sub domain.Subscription) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sub.Key()
	for _, existing := range m.subs {
		if existing.Key() == key {
			return false, nil
		}
	}
	m.subs = append(m.subs, sub)
	return true, nil
}

func (m *MemorySubscriptions) Deregister(_ context.Context, key domain.SubscriptionKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := m.subs[:0]
	for _, sub := range m.subs {
		if sub.Key() != key {
			fresh = append(fresh, sub)
		}
	}
	m.subs = fresh
	return nil
}

func (m *MemorySubscriptions) DeregisterAll(_ context.Context, username, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fresh := m.subs[:0]
	for _, sub := range m.subs {
		if sub.Username != username || sub.Room != room {
			fresh = append(fresh, sub)
		}
	}
	m.subs = fresh
	return nil
}

func (m *MemorySubscriptions) All(_ context.Context) ([]domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Subscription, len(m.subs))
	copy(out, m.subs)
	return out, nil
}
