package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/chatio/internal/core"
	"github.com/dkeye/chatio/internal/domain"
)

func sub(endpoint, username, room string) domain.Subscription {
	return domain.Subscription{
		Endpoint: endpoint,
		P256DH:   "p256dh-key",
		Auth:     "auth-key",
		Username: username,
		Room:     room,
	}
}

func names(t *testing.T, s core.SubscriptionStore) map[string]int {
	t.Helper()
	subs, err := s.All(context.Background())
	require.NoError(t, err)
	out := map[string]int{}
	for _, sub := range subs {
		out[sub.Username]++
	}
	return out
}

// testSubscriptionStore runs the registry contract; the invariants must hold
// regardless of backing store.
func testSubscriptionStore(t *testing.T, s core.SubscriptionStore) {
	ctx := context.Background()

	t.Run("register is idempotent", func(t *testing.T) {
		created, err := s.Register(ctx, sub("https://push/a", "Alice", "general"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = s.Register(ctx, sub("https://push/a", "Alice", "general"))
		require.NoError(t, err)
		assert.False(t, created)

		assert.Equal(t, map[string]int{"Alice": 1}, names(t, s))
	})

	t.Run("same endpoint different room is distinct", func(t *testing.T) {
		created, err := s.Register(ctx, sub("https://push/a", "Alice", "random"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, map[string]int{"Alice": 2}, names(t, s))
	})

	t.Run("deregister is idempotent", func(t *testing.T) {
		key := domain.SubscriptionKey{Endpoint: "https://push/a", Username: "Alice", Room: "random"}
		require.NoError(t, s.Deregister(ctx, key))
		assert.Equal(t, map[string]int{"Alice": 1}, names(t, s))

		require.NoError(t, s.Deregister(ctx, key))
		assert.Equal(t, map[string]int{"Alice": 1}, names(t, s))
	})

	t.Run("deregister all for user and room", func(t *testing.T) {
		_, err := s.Register(ctx, sub("https://push/b1", "Bob", "general"))
		require.NoError(t, err)
		_, err = s.Register(ctx, sub("https://push/b2", "Bob", "general"))
		require.NoError(t, err)
		_, err = s.Register(ctx, sub("https://push/b3", "Bob", "random"))
		require.NoError(t, err)

		require.NoError(t, s.DeregisterAll(ctx, "Bob", "general"))
		assert.Equal(t, map[string]int{"Alice": 1, "Bob": 1}, names(t, s))

		// No-op when nothing matches.
		require.NoError(t, s.DeregisterAll(ctx, "Bob", "general"))
		assert.Equal(t, map[string]int{"Alice": 1, "Bob": 1}, names(t, s))
	})
}

func TestMemorySubscriptions(t *testing.T) {
	testSubscriptionStore(t, NewMemorySubscriptions())
}

func TestSQLiteSubscriptions(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "chatio.db"))
	require.NoError(t, err)
	testSubscriptionStore(t, NewSQLiteSubscriptions(db))
}

func TestSQLiteMessages(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "chatio.db"))
	require.NoError(t, err)

	messages := NewSQLiteMessages(db)
	msg := domain.ChatMessage{
		Username: "Alice",
		Text:     "hello",
		Time:     "3:04 PM",
		Date:     "May 1 2024",
		Room:     "general",
	}
	require.NoError(t, messages.SaveMessage(context.Background(), msg))

	var records []MessageRecord
	require.NoError(t, db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Username)
	assert.Equal(t, "hello", records[0].Message)
	assert.Equal(t, "3:04 PM (May 1 2024)", records[0].Time)
	assert.Equal(t, "general", records[0].Room)
}
