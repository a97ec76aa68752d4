package models

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation statuses. A conversation only ever moves active → archived.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Message roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
	MessageRoleTool      = "tool"
)

// Conversation is a role-scoped chat between a platform user and the assistant.
// MessageCount, TotalTokens and LastMessageAt are maintained by the atomic
// append and always agree with the rows in ConversationMessage.
type Conversation struct {
	ID            string            `gorm:"primaryKey;size:36" json:"id"`
	UserID        string            `gorm:"size:64;not null;index:idx_conversation_user_status;index:idx_conversation_user_role" json:"user_id"`
	Role          string            `gorm:"size:32;not null;index:idx_conversation_user_role" json:"role"`
	Title         *string           `gorm:"size:255" json:"title,omitempty"`
	TitleFolded   *string           `gorm:"size:255" json:"-"` // lowercased Title, used by search
	Context       datatypes.JSONMap `json:"context,omitempty"`
	Status        string            `gorm:"size:16;not null;default:active;index:idx_conversation_user_status" json:"status"`
	MessageCount  int64             `gorm:"not null;default:0" json:"message_count"`
	TotalTokens   int64             `gorm:"not null;default:0" json:"total_tokens"`
	LastMessageAt *time.Time        `gorm:"index" json:"last_message_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	Messages []ConversationMessage `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ConversationMessage is a single immutable turn in a Conversation. Seq is the
// 1-based position of the message inside its conversation.
type ConversationMessage struct {
	ID               string                        `gorm:"primaryKey;size:36" json:"id"`
	ConversationID   string                        `gorm:"size:36;not null;uniqueIndex:idx_message_conversation_seq,priority:1" json:"conversation_id"`
	Seq              int64                         `gorm:"not null;uniqueIndex:idx_message_conversation_seq,priority:2" json:"seq"`
	Role             string                        `gorm:"size:16;not null;index" json:"role"`
	Content          string                        `gorm:"type:text;not null" json:"content"`
	ToolCalls        datatypes.JSONSlice[ToolCall] `json:"tool_calls,omitempty"`
	TokensUsed       int64                         `gorm:"not null;default:0" json:"tokens_used"`
	ProcessingTimeMs *int64                        `json:"processing_time_ms,omitempty"`
	Metadata         datatypes.JSONMap             `json:"metadata,omitempty"`
	CreatedAt        time.Time                     `json:"created_at"`
}

// ToolCall records one tool invocation made while producing a message.
type ToolCall struct {
	ToolName string         `json:"tool_name"`
	Params   map[string]any `json:"params,omitempty"`
	Result   any            `json:"result,omitempty"`
}

// ValidMessageRole reports whether role is one of the known message roles.
func ValidMessageRole(role string) bool {
	switch role {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem, MessageRoleTool:
		return true
	}
	return false
}
