package core

// InboundEvent is one update pulled from the chat platform.
type InboundEvent struct {
	// Cursor is the platform's update_id.
	Cursor int64
	// ChatID is zero for updates that carry no message.
	ChatID int64
	// Text is empty for non-text messages.
	Text string
}
