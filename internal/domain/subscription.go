package domain

// Subscription is a registered Web Push target for a (username, room) pair.
// Its lifetime is independent of any Session, but the disconnect cleanup
// removes every subscription the departing user held for that room.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	P256DH   string `json:"p256dh"`
	Auth     string `json:"auth"`
	Username string `json:"username"`
	Room     string `json:"room"`
}

// SubscriptionKey is the uniqueness key: no two subscriptions may share it.
type SubscriptionKey struct {
	Endpoint string
	Username string
	Room     string
}

func (s Subscription) Key() SubscriptionKey {
	return SubscriptionKey{Endpoint: s.Endpoint, Username: s.Username, Room: s.Room}
}
