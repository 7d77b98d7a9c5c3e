package domain

import "time"

// Display layouts for the client chat view.
const (
	TimeLayout = "3:04 PM"
	DateLayout = "Jan 2 2006"
)

// ChatMessage is a display-ready chat line. Room is empty for admin notices
// addressed to a single client (welcome messages).
type ChatMessage struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
	Date     string `json:"date"`
	Room     string `json:"room,omitempty"`
}

// FormatMessage stamps a chat line with the human-readable send time.
func FormatMessage(username, text, room string, at time.Time) ChatMessage {
	return ChatMessage{
		Username: username,
		Text:     text,
		Time:     at.Format(TimeLayout),
		Date:     at.Format(DateLayout),
		Room:     room,
	}
}

// FormattedAt is the combined timestamp used by the persistence record.
func (m ChatMessage) FormattedAt() string {
	return m.Time + " (" + m.Date + ")"
}
