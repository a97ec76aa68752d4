package session

import "errors"

// Sentinel errors returned by the Manager. Store errors such as
// conversation.ErrNotFound pass through wrapped.
var (
	ErrUnsupportedRole      = errors.New("unsupported role")
	ErrMessageTooLong       = errors.New("message too long")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrConversationArchived = errors.New("conversation is archived")
	ErrToolNotAvailable     = errors.New("tool not available for role")
	ErrGeneration           = errors.New("reply generation failed")
)
