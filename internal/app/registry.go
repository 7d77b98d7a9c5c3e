package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/core"
	"github.com/dkeye/chatio/internal/domain"
)

type sessionEntry struct {
	Session domain.Session
	Conn    core.Connection
}

// Registry maps live connections to their sessions. Handlers run on
// per-connection goroutines, so every access goes through the mutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.ConnID]*sessionEntry),
	}
}

// Join registers a session for cid, unconditionally replacing any prior one.
func (r *Registry) Join(cid core.ConnID, sess domain.Session, conn core.Connection) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[cid] = &sessionEntry{Session: sess, Conn: conn}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("username", sess.Username).Str("room", sess.Room).Msg("joined")
	return sess
}

// Leave removes and returns the session for cid. The second return is false
// when the connection had no session; callers treat that as a benign race,
// not an error.
func (r *Registry) Leave(cid core.ConnID) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[cid]
	if !ok {
		return domain.Session{}, false
	}
	delete(r.sessions, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("username", entry.Session.Username).Msg("left")
	return entry.Session, true
}

// Lookup attributes a connection to its session without mutating anything.
func (r *Registry) Lookup(cid core.ConnID) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.sessions[cid]; ok {
		return entry.Session, true
	}
	return domain.Session{}, false
}

// RoomMember is one entry of a room membership snapshot.
type RoomMember struct {
	ConnID   core.ConnID
	Username string
	Conn     core.Connection
}

// MembersOf derives the room's membership by scanning all sessions. Order is
// map iteration order; callers must treat the result as a set. Linear in the
// total session count, which is fine at chat-room scale.
func (r *Registry) MembersOf(room string) []RoomMember {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomMember, 0, len(r.sessions))
	for cid, entry := range r.sessions {
		if entry.Session.Room == room {
			out = append(out, RoomMember{ConnID: cid, Username: entry.Session.Username, Conn: entry.Conn})
		}
	}
	return out
}
