// Package session orchestrates role-scoped conversations: it validates input
// against the role registry and limits, persists through the conversation
// store, calls the reply generator and gated tools, and publishes lifecycle
// events.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zulandar/parley/internal/conversation"
	"github.com/zulandar/parley/internal/events"
	"github.com/zulandar/parley/internal/models"
	"github.com/zulandar/parley/internal/roles"
)

// Default limits.
const (
	DefaultMaxMessageLength      = 10000
	DefaultMaxConversationLength = 100
	DefaultHistoryWindow         = 50

	// DefaultPublishTimeout bounds how long one operation waits on event
	// delivery.
	DefaultPublishTimeout = 2 * time.Second
)

// Limits bounds message size and history handling.
type Limits struct {
	MaxMessageLength      int // in characters
	MaxConversationLength int // advisory; crossing it only warns
	HistoryWindow         int // messages handed to the generator
}

func (l Limits) withDefaults() Limits {
	if l.MaxMessageLength <= 0 {
		l.MaxMessageLength = DefaultMaxMessageLength
	}
	if l.MaxConversationLength <= 0 {
		l.MaxConversationLength = DefaultMaxConversationLength
	}
	if l.HistoryWindow <= 0 {
		l.HistoryWindow = DefaultHistoryWindow
	}
	return l
}

// Manager is the conversation session manager.
type Manager struct {
	store     *conversation.Store
	registry  *roles.Registry
	generator Generator
	tools     ToolExecutor
	publisher events.Publisher
	log       *slog.Logger
	limits    Limits
	timeout   time.Duration
	now       func() time.Time
}

// ManagerOpts holds parameters for creating a Manager.
type ManagerOpts struct {
	Store     *conversation.Store
	Registry  *roles.Registry  // defaults to roles.Default()
	Generator Generator        // defaults to StubGenerator
	Tools     ToolExecutor     // defaults to PlaceholderExecutor
	Publisher events.Publisher // defaults to events.Nop
	Logger    *slog.Logger     // defaults to slog.Default()
	Limits    Limits
	// PublishTimeout caps each event publish; defaults to DefaultPublishTimeout.
	PublishTimeout time.Duration
	Now            func() time.Time
}

// NewManager creates a Manager.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	m := &Manager{
		store:     opts.Store,
		registry:  opts.Registry,
		generator: opts.Generator,
		tools:     opts.Tools,
		publisher: opts.Publisher,
		log:       opts.Logger,
		limits:    opts.Limits.withDefaults(),
		timeout:   opts.PublishTimeout,
		now:       opts.Now,
	}
	if m.registry == nil {
		m.registry = roles.Default()
	}
	if m.generator == nil {
		m.generator = StubGenerator{}
	}
	if m.tools == nil {
		m.tools = PlaceholderExecutor{}
	}
	if m.publisher == nil {
		m.publisher = events.Nop{}
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.timeout <= 0 {
		m.timeout = DefaultPublishTimeout
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m, nil
}

// Limits returns the effective limits.
func (m *Manager) Limits() Limits {
	return m.limits
}

// StartConversation creates an active conversation for userID in role.
func (m *Manager) StartConversation(ctx context.Context, userID string, role roles.Role, title *string, convCtx map[string]any) (*models.Conversation, error) {
	if !m.registry.Known(role) {
		return nil, fmt.Errorf("session: start conversation: %w: %q", ErrUnsupportedRole, role)
	}
	conv, err := m.store.Create(ctx, conversation.CreateOpts{
		UserID:  userID,
		Role:    string(role),
		Title:   title,
		Context: convCtx,
	})
	if err != nil {
		return nil, fmt.Errorf("session: start conversation: %w", err)
	}

	m.log.Info("session: conversation started", "conversation_id", conv.ID, "user_id", userID, "role", role)
	m.publish(ctx, events.Event{
		Type:        events.TypeConversationStarted,
		EntityType:  events.EntityConversation,
		EntityID:    conv.ID,
		ActorUserID: userID,
		Payload:     map[string]any{"conversation_id": conv.ID, "user_id": userID, "role": string(role)},
	})
	return conv, nil
}

// AppendResult is the outcome of AppendUserMessage.
type AppendResult struct {
	Message *models.ConversationMessage `json:"message"`
	// LengthWarning is set when the conversation had already reached the
	// configured maximum length. The message is stored regardless.
	LengthWarning bool `json:"length_warning"`
}

// AppendUserMessage stores a user message.
func (m *Manager) AppendUserMessage(ctx context.Context, conversationID, userID, content string, metadata map[string]any) (*AppendResult, error) {
	if n := utf8.RuneCountInString(content); n > m.limits.MaxMessageLength {
		return nil, fmt.Errorf("session: append message: %w: %d characters, maximum is %d", ErrMessageTooLong, n, m.limits.MaxMessageLength)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("session: append message: %w", ErrEmptyMessage)
	}

	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: append message: %w", err)
	}
	if conv.Status == models.StatusArchived {
		return nil, fmt.Errorf("session: append message to %s: %w", conversationID, ErrConversationArchived)
	}

	result := &AppendResult{}
	if conv.MessageCount >= int64(m.limits.MaxConversationLength) {
		result.LengthWarning = true
		m.log.Warn("session: conversation at max length",
			"conversation_id", conversationID, "message_count", conv.MessageCount, "max", m.limits.MaxConversationLength)
	}

	msg, err := m.store.AppendMessage(ctx, conversation.AppendOpts{
		ConversationID: conversationID,
		Role:           models.MessageRoleUser,
		Content:        content,
		Metadata:       metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("session: append message: %w", translate(err))
	}
	result.Message = msg

	m.publish(ctx, events.Event{
		Type:        events.TypeMessageSent,
		EntityType:  events.EntityMessage,
		EntityID:    msg.ID,
		ActorUserID: userID,
		Payload: map[string]any{
			"conversation_id": conversationID,
			"message_id":      msg.ID,
			"message_length":  utf8.RuneCountInString(content),
		},
	})
	return result, nil
}

// GenerateAssistantReply asks the generator for a reply to the conversation
// so far and stores it. Nothing is stored when generation fails or ctx ends
// before the reply is persisted.
func (m *Manager) GenerateAssistantReply(ctx context.Context, conversationID, userID string) (*models.ConversationMessage, error) {
	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: generate reply: %w", err)
	}
	if conv.Status == models.StatusArchived {
		return nil, fmt.Errorf("session: generate reply for %s: %w", conversationID, ErrConversationArchived)
	}

	role := roles.Role(conv.Role)
	prompt, err := m.registry.SystemPromptFor(role)
	if err != nil {
		return nil, fmt.Errorf("session: generate reply: %w: %w", ErrUnsupportedRole, err)
	}
	tools, err := m.registry.ToolsFor(role)
	if err != nil {
		return nil, fmt.Errorf("session: generate reply: %w: %w", ErrUnsupportedRole, err)
	}
	history, err := m.store.RecentMessages(ctx, conversationID, m.limits.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("session: generate reply: %w", err)
	}

	started := time.Now()
	reply, err := m.generator.Generate(ctx, GenerateRequest{
		Role:         role,
		SystemPrompt: prompt,
		History:      history,
		Tools:        tools,
		Context:      conv.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("session: generate reply for %s: %w: %w", conversationID, ErrGeneration, err)
	}
	if reply == nil || reply.Content == "" {
		return nil, fmt.Errorf("session: generate reply for %s: %w: empty reply", conversationID, ErrGeneration)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session: generate reply for %s: %w", conversationID, err)
	}

	latency := reply.Latency
	if latency <= 0 {
		latency = time.Since(started)
	}
	ms := latency.Milliseconds()

	msg, err := m.store.AppendMessage(ctx, conversation.AppendOpts{
		ConversationID:   conversationID,
		Role:             models.MessageRoleAssistant,
		Content:          reply.Content,
		ToolCalls:        reply.ToolCalls,
		TokensUsed:       reply.TokensUsed,
		ProcessingTimeMs: &ms,
	})
	if err != nil {
		return nil, fmt.Errorf("session: store reply: %w", translate(err))
	}

	m.log.Info("session: reply generated", "conversation_id", conversationID, "tokens", reply.TokensUsed, "latency_ms", ms)
	m.publish(ctx, events.Event{
		Type:        events.TypeMessageGenerated,
		EntityType:  events.EntityMessage,
		EntityID:    msg.ID,
		ActorUserID: userID,
		Payload: map[string]any{
			"conversation_id": conversationID,
			"message_id":      msg.ID,
			"tokens_used":     reply.TokensUsed,
		},
	})
	return msg, nil
}

// ExecuteTool runs toolName for a user acting in role. The role check happens
// before anything else; a disallowed tool never reaches the executor.
func (m *Manager) ExecuteTool(ctx context.Context, userID string, role roles.Role, toolName string, params map[string]any) (map[string]any, error) {
	if !m.registry.IsToolAllowed(role, toolName) {
		return nil, fmt.Errorf("session: execute tool: %w: %q for role %q", ErrToolNotAvailable, toolName, role)
	}
	result, err := m.tools.Execute(ctx, ToolCall{UserID: userID, Role: role, Name: toolName, Params: params})
	if err != nil {
		return nil, fmt.Errorf("session: execute tool %s: %w", toolName, err)
	}

	m.publish(ctx, events.Event{
		Type:        events.TypeToolExecuted,
		EntityType:  events.EntityTool,
		EntityID:    toolName,
		ActorUserID: userID,
		Payload:     map[string]any{"tool": toolName, "role": string(role)},
	})
	return result, nil
}

// GetHistory returns every message of the conversation in order.
func (m *Manager) GetHistory(ctx context.Context, conversationID string) ([]models.ConversationMessage, error) {
	msgs, err := m.store.AllMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: history: %w", err)
	}
	return msgs, nil
}

// Summary describes a conversation.
type Summary struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	KeyTopics      []string  `json:"key_topics"`
	ActionItems    []string  `json:"action_items"`
	MessageCount   int64     `json:"message_count"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Summarize produces a summary of the full conversation.
func (m *Manager) Summarize(ctx context.Context, conversationID string) (*Summary, error) {
	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: summarize: %w", err)
	}
	history, err := m.store.AllMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: summarize: %w", err)
	}

	title := "Untitled"
	if conv.Title != nil && *conv.Title != "" {
		title = *conv.Title
	}
	res, err := m.generator.Summarize(ctx, SummaryRequest{
		Role:         roles.Role(conv.Role),
		Title:        title,
		Context:      conv.Context,
		MessageCount: conv.MessageCount,
		CreatedAt:    conv.CreatedAt,
		History:      history,
	})
	if err != nil {
		return nil, fmt.Errorf("session: summarize %s: %w: %w", conversationID, ErrGeneration, err)
	}

	s := &Summary{
		ConversationID: conv.ID,
		Title:          title,
		Summary:        res.Summary,
		KeyTopics:      res.KeyTopics,
		ActionItems:    res.ActionItems,
		MessageCount:   conv.MessageCount,
		GeneratedAt:    m.now(),
	}
	if s.KeyTopics == nil {
		s.KeyTopics = []string{}
	}
	if s.ActionItems == nil {
		s.ActionItems = []string{}
	}
	return s, nil
}

// Statistics returns aggregates for userID, or for everyone when empty.
func (m *Manager) Statistics(ctx context.Context, userID string) (*conversation.Statistics, error) {
	stats, err := m.store.Statistics(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("session: statistics: %w", err)
	}
	return stats, nil
}

// GetConversation returns one conversation.
func (m *Manager) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	conv, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns a page of the user's conversations.
func (m *Manager) ListConversations(ctx context.Context, userID string, page conversation.Page, status string) ([]models.Conversation, int64, error) {
	convs, total, err := m.store.ListByUser(ctx, userID, page, status)
	if err != nil {
		return nil, 0, fmt.Errorf("session: list conversations: %w", err)
	}
	return convs, total, nil
}

// SearchConversations returns a page of the user's conversations whose
// title contains term.
func (m *Manager) SearchConversations(ctx context.Context, userID, term string, page conversation.Page) ([]models.Conversation, int64, error) {
	convs, total, err := m.store.SearchByTitle(ctx, userID, term, page)
	if err != nil {
		return nil, 0, fmt.Errorf("session: search conversations: %w", err)
	}
	return convs, total, nil
}

// ListMessages returns a page of the conversation's messages.
func (m *Manager) ListMessages(ctx context.Context, conversationID string, page conversation.Page) ([]models.ConversationMessage, int64, error) {
	msgs, total, err := m.store.ListMessages(ctx, conversationID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("session: list messages: %w", err)
	}
	return msgs, total, nil
}

// UpdateConversation changes title, status or context. Archiving through
// an update publishes the same event as ArchiveConversation.
func (m *Manager) UpdateConversation(ctx context.Context, conversationID, userID string, opts conversation.UpdateOpts) (*models.Conversation, error) {
	if opts.Status == models.StatusArchived {
		return m.archive(ctx, conversationID, userID, opts)
	}
	conv, err := m.store.Update(ctx, conversationID, opts)
	if err != nil {
		return nil, fmt.Errorf("session: update conversation: %w", err)
	}
	return conv, nil
}

// ArchiveConversation archives the conversation. Archiving twice succeeds;
// only the first call publishes an event.
func (m *Manager) ArchiveConversation(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	return m.archive(ctx, conversationID, userID, conversation.UpdateOpts{Status: models.StatusArchived})
}

func (m *Manager) archive(ctx context.Context, conversationID, userID string, opts conversation.UpdateOpts) (*models.Conversation, error) {
	before, err := m.store.Get(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("session: archive conversation: %w", err)
	}
	conv, err := m.store.Update(ctx, conversationID, opts)
	if err != nil {
		return nil, fmt.Errorf("session: archive conversation: %w", err)
	}
	if before.Status != models.StatusArchived {
		m.log.Info("session: conversation archived", "conversation_id", conversationID)
		m.publish(ctx, events.Event{
			Type:        events.TypeConversationArchived,
			EntityType:  events.EntityConversation,
			EntityID:    conversationID,
			ActorUserID: userID,
			Payload:     map[string]any{"conversation_id": conversationID, "message_count": conv.MessageCount},
		})
	}
	return conv, nil
}

// DeleteConversation removes the conversation and all of its messages.
func (m *Manager) DeleteConversation(ctx context.Context, conversationID string) error {
	if err := m.store.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("session: delete conversation: %w", err)
	}
	m.log.Info("session: conversation deleted", "conversation_id", conversationID)
	return nil
}

// Roles returns every registered role.
func (m *Manager) Roles() []roles.Role {
	return m.registry.Roles()
}

// RoleCapabilities returns the full capability entry for role.
func (m *Manager) RoleCapabilities(role roles.Role) (roles.Capabilities, error) {
	caps, err := m.registry.CapabilitiesFor(role)
	if err != nil {
		return roles.Capabilities{}, fmt.Errorf("session: %w: %w", ErrUnsupportedRole, err)
	}
	return caps, nil
}

// SystemPromptFor returns the role's system prompt.
func (m *Manager) SystemPromptFor(role roles.Role) (string, error) {
	return m.registry.SystemPromptFor(role)
}

// ToolsFor returns the role's tools.
func (m *Manager) ToolsFor(role roles.Role) ([]string, error) {
	return m.registry.ToolsFor(role)
}

// FeaturesFor returns the role's feature flags.
func (m *Manager) FeaturesFor(role roles.Role) (map[string]bool, error) {
	return m.registry.FeaturesFor(role)
}

// SuggestedPromptsFor returns the role's suggested prompts.
func (m *Manager) SuggestedPromptsFor(role roles.Role) ([]roles.SuggestedPrompt, error) {
	return m.registry.SuggestedPromptsFor(role)
}

// publish delivers e on a context detached from the caller's cancellation and
// bounded by the publish timeout. Lifecycle operations never fail because of
// a publisher; failures are logged.
func (m *Manager) publish(ctx context.Context, e events.Event) {
	e.Timestamp = m.now()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()
	if err := m.publisher.Publish(ctx, e); err != nil {
		m.log.Warn("session: publish event failed", "type", e.Type, "entity_id", e.EntityID, "error", err)
	}
}

// translate maps store errors onto the Manager's sentinels.
func translate(err error) error {
	if errors.Is(err, conversation.ErrArchived) {
		return fmt.Errorf("%w: %w", ErrConversationArchived, err)
	}
	return err
}
