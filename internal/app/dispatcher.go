package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/chatio/internal/core"
	"github.com/dkeye/chatio/internal/domain"
)

const (
	defaultPushTimeout    = 10 * time.Second
	defaultPersistTimeout = 5 * time.Second
)

// Dispatcher is the fan-out engine: it owns the join/disconnect transitions,
// message broadcast and the push notification pass. Transport and storage
// arrive as injected collaborators; it holds no hidden globals.
type Dispatcher struct {
	Registry *Registry
	Subs     core.SubscriptionStore
	Messages core.MessageStore
	Push     core.PushSender
	Policy   NotifyPolicy

	PushTimeout    time.Duration
	PersistTimeout time.Duration

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

type messageEvent struct {
	Type string `json:"type"`
	domain.ChatMessage
}

type roomUser struct {
	Username string `json:"username"`
}

type roomUsersEvent struct {
	Type  string     `json:"type"`
	Room  string     `json:"room"`
	Users []roomUser `json:"users"`
}

type typingEvent struct {
	Type string          `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// HandleJoin registers the session, welcomes the joiner, announces the join
// to the rest of the room and refreshes everyone's member list.
func (d *Dispatcher) HandleJoin(cid core.ConnID, conn core.Connection, sess domain.Session) {
	d.Registry.Join(cid, sess, conn)

	welcome := domain.FormatMessage(AdminUser, "Welcome to ChatIO "+sess.Username+"!!", "", d.now())
	d.sendJSON(conn, messageEvent{Type: "message", ChatMessage: welcome})

	announce := domain.FormatMessage(AdminUser, sess.Username+" has joined the chat!!", sess.Room, d.now())
	d.broadcastExcept(sess.Room, cid, messageEvent{Type: "message", ChatMessage: announce})

	d.broadcastRoomUsers(sess.Room)
}

// HandleMessage runs the per-message state machine: attribute, format,
// persist, broadcast, notify. An unknown cid means the sender disconnected
// while the event was in flight; the message is dropped silently.
func (d *Dispatcher) HandleMessage(ctx context.Context, cid core.ConnID, text string) {
	sess, ok := d.Registry.Lookup(cid)
	if !ok {
		log.Warn().Str("module", "app.dispatcher").Str("cid", string(cid)).Msg("message from unknown connection, dropping")
		return
	}

	msg := domain.FormatMessage(sess.Username, text, sess.Room, d.now())

	// Persist before broadcast. A failed save is logged and delivery
	// continues; live recipients still get the message.
	persistCtx, cancel := context.WithTimeout(ctx, d.persistTimeout())
	if err := d.Messages.SaveMessage(persistCtx, msg); err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("room", sess.Room).Msg("persist failed, continuing delivery")
	}
	cancel()

	d.broadcastRoom(sess.Room, messageEvent{Type: "message", ChatMessage: msg})

	d.Notify(ctx, msg)
}

// HandleTyping relays a typing indicator verbatim to everyone else in the
// sender's room. No state is retained.
func (d *Dispatcher) HandleTyping(cid core.ConnID, raw json.RawMessage) {
	sess, ok := d.Registry.Lookup(cid)
	if !ok {
		return
	}
	d.broadcastExcept(sess.Room, cid, typingEvent{Type: "type", Msg: raw})
}

// HandleDisconnect removes the session, cleans up the user's subscriptions
// for that room and announces the departure. Idempotent: a second call for
// the same cid finds no session and broadcasts nothing.
func (d *Dispatcher) HandleDisconnect(ctx context.Context, cid core.ConnID) {
	sess, ok := d.Registry.Leave(cid)
	if !ok {
		return
	}

	if err := d.Subs.DeregisterAll(ctx, sess.Username, sess.Room); err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("username", sess.Username).Str("room", sess.Room).Msg("subscription cleanup failed")
	}

	announce := domain.FormatMessage(AdminUser, sess.Username+" has left the chat", sess.Room, d.now())
	d.broadcastRoom(sess.Room, messageEvent{Type: "message", ChatMessage: announce})

	d.broadcastRoomUsers(sess.Room)
}

type pushPayload struct {
	Msg  string `json:"msg"`
	User string `json:"user"`
}

// Notify runs the push pass over the current subscription snapshot. Attempts
// are issued concurrently, each under its own timeout; one failing recipient
// never blocks the rest.
func (d *Dispatcher) Notify(ctx context.Context, msg domain.ChatMessage) {
	subs, err := d.Subs.All(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("subscription snapshot failed, skipping notify pass")
		return
	}

	payload, err := json.Marshal(pushPayload{Msg: msg.Text, User: msg.Username})
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("push payload marshal")
		return
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		if !d.Policy.ShouldNotify(sub, msg) {
			continue
		}
		wg.Add(1)
		go func(sub domain.Subscription) {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, d.pushTimeout())
			defer cancel()
			if err := d.Push.Send(sendCtx, sub, payload); err != nil {
				log.Error().Err(err).Str("module", "app.dispatcher").Str("username", sub.Username).Str("room", sub.Room).Msg("push delivery failed")
				return
			}
			log.Info().Str("module", "app.dispatcher").Str("username", sub.Username).Str("room", sub.Room).Msg("push delivered")
		}(sub)
	}
	wg.Wait()
}

func (d *Dispatcher) pushTimeout() time.Duration {
	if d.PushTimeout > 0 {
		return d.PushTimeout
	}
	return defaultPushTimeout
}

func (d *Dispatcher) persistTimeout() time.Duration {
	if d.PersistTimeout > 0 {
		return d.PersistTimeout
	}
	return defaultPersistTimeout
}

func (d *Dispatcher) sendJSON(conn core.Connection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("sendJSON marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Msg("send dropped")
	}
}

func (d *Dispatcher) broadcastRoom(room string, v any) {
	for _, member := range d.Registry.MembersOf(room) {
		d.sendJSON(member.Conn, v)
	}
}

func (d *Dispatcher) broadcastExcept(room string, except core.ConnID, v any) {
	for _, member := range d.Registry.MembersOf(room) {
		if member.ConnID == except {
			continue
		}
		d.sendJSON(member.Conn, v)
	}
}

func (d *Dispatcher) broadcastRoomUsers(room string) {
	members := d.Registry.MembersOf(room)
	users := make([]roomUser, 0, len(members))
	for _, member := range members {
		users = append(users, roomUser{Username: member.Username})
	}
	d.broadcastRoom(room, roomUsersEvent{Type: "roomUsers", Room: room, Users: users})
}
