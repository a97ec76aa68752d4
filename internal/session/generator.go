package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/parley/internal/models"
	"github.com/zulandar/parley/internal/roles"
)

// GenerateRequest is everything a Generator sees when producing a reply.
type GenerateRequest struct {
	Role         roles.Role
	SystemPrompt string
	History      []models.ConversationMessage // oldest first, bounded by the history window
	Tools        []string
	Context      map[string]any
}

// Reply is a generated assistant message.
type Reply struct {
	Content    string
	ToolCalls  []models.ToolCall
	TokensUsed int64
	Latency    time.Duration // measured by the Manager when zero
}

// SummaryRequest is everything a Generator sees when summarizing.
type SummaryRequest struct {
	Role         roles.Role
	Title        string
	Context      map[string]any
	MessageCount int64
	CreatedAt    time.Time
	History      []models.ConversationMessage
}

// SummaryResult is the generated part of a Summary.
type SummaryResult struct {
	Summary     string
	KeyTopics   []string
	ActionItems []string
}

// Generator produces assistant replies and conversation summaries. It must
// honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*Reply, error)
	Summarize(ctx context.Context, req SummaryRequest) (*SummaryResult, error)
}

// Stub reply accounting.
const (
	StubTokens  = 100
	StubLatency = 500 * time.Millisecond
)

// StubGenerator answers without a model: it names the role and the tools
// available to it.
type StubGenerator struct{}

// Generate implements Generator.
func (StubGenerator) Generate(ctx context.Context, req GenerateRequest) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Reply{
		Content: fmt.Sprintf("I'm assisting you as a %s. I can help you with: %s. What would you like to do?",
			req.Role, strings.Join(req.Tools, ", ")),
		TokensUsed: StubTokens,
		Latency:    StubLatency,
	}, nil
}

// Summarize implements Generator.
func (StubGenerator) Summarize(ctx context.Context, req SummaryRequest) (*SummaryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &SummaryResult{
		Summary:     fmt.Sprintf("Conversation with %d messages on %s", req.MessageCount, req.CreatedAt.Format(time.DateOnly)),
		KeyTopics:   []string{"general inquiry"},
		ActionItems: []string{},
	}, nil
}
