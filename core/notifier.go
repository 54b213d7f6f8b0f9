package core

import "context"

// Sender delivers text messages to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (Delivery, error)
}
