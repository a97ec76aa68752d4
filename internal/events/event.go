// Package events publishes conversation lifecycle events to logs and chat
// channels. Publishing is best-effort: callers log a failed publish and carry on.
package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Event types.
const (
	TypeConversationStarted  = "conversation.started"
	TypeConversationArchived = "conversation.archived"
	TypeMessageSent          = "message.sent"
	TypeMessageGenerated     = "message.generated"
	TypeToolExecuted         = "tool.executed"
	TypeStatisticsDigest     = "statistics.digest"
)

// Entity types.
const (
	EntityConversation = "conversation"
	EntityMessage      = "message"
	EntityTool         = "tool"
	EntityStatistics   = "statistics"
)

// Sidebar colors used by chat publishers.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
)

// Event is a single lifecycle notification.
type Event struct {
	Type        string         `json:"type"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	ActorUserID string         `json:"actor_user_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher. All publishers are attempted;
// their errors are joined.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Field is a name/value pair rendered by chat publishers.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Formatted is the chat rendering of an Event.
type Formatted struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

var titles = map[string]string{
	TypeConversationStarted:  "Conversation started",
	TypeConversationArchived: "Conversation archived",
	TypeMessageSent:          "Message sent",
	TypeMessageGenerated:     "Assistant replied",
	TypeToolExecuted:         "Tool executed",
	TypeStatisticsDigest:     "Conversation statistics",
}

// Format renders e for a chat channel. Payload keys become fields in
// sorted order.
func Format(e Event) Formatted {
	f := Formatted{Title: titles[e.Type], Color: ColorInfo}
	if f.Title == "" {
		f.Title = e.Type
	}
	switch e.Type {
	case TypeConversationStarted, TypeMessageGenerated:
		f.Color = ColorSuccess
	case TypeConversationArchived:
		f.Color = ColorWarning
	}

	f.Body = fmt.Sprintf("%s %s", e.EntityType, e.EntityID)
	if e.ActorUserID != "" {
		f.Body += " by user " + e.ActorUserID
	}

	keys := make([]string, 0, len(e.Payload))
	for k := range e.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.Fields = append(f.Fields, Field{Name: k, Value: fmt.Sprint(e.Payload[k]), Short: true})
	}
	return f
}
