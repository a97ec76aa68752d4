package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestConversation_Fields(t *testing.T) {
	typ := reflect.TypeOf(Conversation{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "UserID", "not null")
	assertGormTag(t, typ, "UserID", "idx_conversation_user_status")
	assertGormTag(t, typ, "UserID", "idx_conversation_user_role")
	assertGormTag(t, typ, "Role", "size:32")
	assertGormTag(t, typ, "Role", "idx_conversation_user_role")
	assertGormTag(t, typ, "Title", "size:255")
	assertGormTag(t, typ, "Status", "default:active")
	assertGormTag(t, typ, "Status", "idx_conversation_user_status")
	assertGormTag(t, typ, "MessageCount", "default:0")
	assertGormTag(t, typ, "TotalTokens", "default:0")
	assertGormTag(t, typ, "LastMessageAt", "index")

	assertFieldType(t, typ, "ID", "string")
	assertFieldType(t, typ, "Title", "*string")
	assertFieldType(t, typ, "Context", "datatypes.JSONMap")
	assertFieldType(t, typ, "MessageCount", "int64")
	assertFieldType(t, typ, "TotalTokens", "int64")
	assertFieldType(t, typ, "LastMessageAt", "*time.Time")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestConversation_Relations(t *testing.T) {
	typ := reflect.TypeOf(Conversation{})

	assertGormTag(t, typ, "Messages", "foreignKey:ConversationID")
	assertGormTag(t, typ, "Messages", "OnDelete:CASCADE")
	assertFieldType(t, typ, "Messages", "[]models.ConversationMessage")
}

func TestConversationMessage_Fields(t *testing.T) {
	typ := reflect.TypeOf(ConversationMessage{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ConversationID", "not null")
	assertGormTag(t, typ, "ConversationID", "idx_message_conversation_seq,priority:1")
	assertGormTag(t, typ, "Seq", "idx_message_conversation_seq,priority:2")
	assertGormTag(t, typ, "Role", "size:16")
	assertGormTag(t, typ, "Content", "type:text")
	assertGormTag(t, typ, "TokensUsed", "default:0")

	assertFieldType(t, typ, "Seq", "int64")
	assertFieldType(t, typ, "ProcessingTimeMs", "*int64")
	assertFieldType(t, typ, "Metadata", "datatypes.JSONMap")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestValidMessageRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{"user", true},
		{"assistant", true},
		{"system", true},
		{"tool", true},
		{"agent", false},
		{"", false},
		{"USER", false},
	}
	for _, tt := range tests {
		if got := ValidMessageRole(tt.role); got != tt.want {
			t.Errorf("ValidMessageRole(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestConversation_ZeroValue(t *testing.T) {
	c := Conversation{}
	if c.MessageCount != 0 || c.TotalTokens != 0 || c.LastMessageAt != nil {
		t.Error("zero-value Conversation should have zero counters and nil LastMessageAt")
	}
}
