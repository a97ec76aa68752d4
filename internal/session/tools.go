package session

import (
	"context"
	"fmt"
	"time"

	"github.com/zulandar/parley/internal/roles"
)

// ToolCall is an authorized request to run a platform tool.
type ToolCall struct {
	UserID string
	Role   roles.Role
	Name   string
	Params map[string]any
}

// ToolExecutor runs platform tools. The Manager only calls it after the
// role check has passed.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (map[string]any, error)
}

// PlaceholderExecutor acknowledges every call without doing any work.
type PlaceholderExecutor struct {
	Now func() time.Time
}

// Execute implements ToolExecutor.
func (p PlaceholderExecutor) Execute(ctx context.Context, call ToolCall) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return map[string]any{
		"status":    "executed",
		"tool":      call.Name,
		"result":    fmt.Sprintf("Tool %s executed successfully", call.Name),
		"timestamp": now().UTC().Format(time.RFC3339),
	}, nil
}
