package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/chatio/internal/domain"
)

func mustSession(t *testing.T, username, room string) domain.Session {
	t.Helper()
	sess, err := domain.NewSession(username, room)
	require.NoError(t, err)
	return sess
}

func membersSet(members []RoomMember) map[string]bool {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m.Username] = true
	}
	return set
}

func TestRegistryJoinLeaveLookup(t *testing.T) {
	r := NewRegistry()

	sess := r.Join("c1", mustSession(t, "Alice", "general"), &fakeConn{})
	assert.Equal(t, "Alice", sess.Username)

	got, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "general", got.Room)

	_, ok = r.Lookup("c2")
	assert.False(t, ok)

	removed, ok := r.Leave("c1")
	require.True(t, ok)
	assert.Equal(t, "Alice", removed.Username)

	_, ok = r.Leave("c1")
	assert.False(t, ok)
	_, ok = r.Lookup("c1")
	assert.False(t, ok)
}

func TestRegistryJoinOverwrites(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", mustSession(t, "Alice", "general"), &fakeConn{})
	r.Join("c1", mustSession(t, "Alice", "random"), &fakeConn{})

	got, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "random", got.Room)

	// The old room must not retain a stale entry.
	assert.Empty(t, r.MembersOf("general"))
	assert.Len(t, r.MembersOf("random"), 1)
}

func TestRegistryMembersOfTracksJoinLeaveSequences(t *testing.T) {
	r := NewRegistry()

	r.Join("c1", mustSession(t, "Alice", "general"), &fakeConn{})
	r.Join("c2", mustSession(t, "Bob", "general"), &fakeConn{})
	r.Join("c3", mustSession(t, "Carol", "random"), &fakeConn{})

	assert.Equal(t, map[string]bool{"Alice": true, "Bob": true}, membersSet(r.MembersOf("general")))
	assert.Equal(t, map[string]bool{"Carol": true}, membersSet(r.MembersOf("random")))

	r.Leave("c2")
	assert.Equal(t, map[string]bool{"Alice": true}, membersSet(r.MembersOf("general")))

	r.Leave("c1")
	assert.Empty(t, r.MembersOf("general"))

	// A room with zero sessions simply ceases to exist.
	assert.Empty(t, r.MembersOf("nowhere"))
}
