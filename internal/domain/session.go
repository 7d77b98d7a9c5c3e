// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxUsernameLen = 36
	MaxRoomLen     = 36
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
	ErrRoomEmpty       = errors.New("room empty")
	ErrRoomTooLong     = errors.New("room too long")
)

// Session is the live binding of one connection to a (username, room) pair.
// It exists only while the connection is open; nothing about it survives a
// process restart.
type Session struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// NewSession validates the pair and avoids ad-hoc struct literals in adapters.
func NewSession(username, room string) (Session, error) {
	if len(username) == 0 {
		return Session{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Session{}, ErrUsernameTooLong
	}
	if len(room) == 0 {
		return Session{}, ErrRoomEmpty
	}
	if len(room) > MaxRoomLen {
		return Session{}, ErrRoomTooLong
	}
	return Session{Username: username, Room: room}, nil
}
