package core

import "time"

// Delivery confirms a message accepted by the chat platform.
type Delivery struct {
	MessageID int64
	ChatID    int64
	SentAt    time.Time
}
