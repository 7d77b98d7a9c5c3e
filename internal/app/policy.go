package app

import "github.com/dkeye/chatio/internal/domain"

// AdminUser is the reserved identity used for join/leave announcements.
// It never receives push notifications.
const AdminUser = "Admin"

// NotifyPolicy decides which subscriptions get a push for a given message.
type NotifyPolicy interface {
	ShouldNotify(sub domain.Subscription, msg domain.ChatMessage) bool
}

// RoomPolicy notifies every subscription in the message's room except the
// sender's own and the admin identity.
type RoomPolicy struct{}

func (RoomPolicy) ShouldNotify(sub domain.Subscription, msg domain.ChatMessage) bool {
	return sub.Room == msg.Room && sub.Username != msg.Username && sub.Username != AdminUser
}
