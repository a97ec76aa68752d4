// Package conversation persists conversations and their messages, keeping the
// per-conversation counters consistent with the message rows.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/parley/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Paging defaults.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ValidTransitions maps each conversation status to its valid next statuses.
// Archived is terminal.
var ValidTransitions = map[string][]string{
	models.StatusActive: {models.StatusArchived},
}

// Store reads and writes conversations through gorm.
type Store struct {
	db    *gorm.DB
	log   *slog.Logger
	now   func() time.Time
	locks stripedLock
}

// StoreOpts holds parameters for creating a Store.
type StoreOpts struct {
	DB     *gorm.DB
	Logger *slog.Logger     // defaults to slog.Default()
	Now    func() time.Time // defaults to time.Now in UTC
}

// NewStore creates a Store.
func NewStore(opts StoreOpts) (*Store, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("conversation: store: db is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{db: opts.DB, log: log, now: now}, nil
}

// CreateOpts holds parameters for creating a conversation.
type CreateOpts struct {
	UserID  string
	Role    string
	Title   *string
	Context map[string]any
}

// Page selects a window of an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

// UpdateOpts holds the fields to change. Nil or empty fields are left alone.
type UpdateOpts struct {
	Title   *string
	Status  string
	Context map[string]any
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Create inserts a new active conversation with zero counters.
func (s *Store) Create(ctx context.Context, opts CreateOpts) (*models.Conversation, error) {
	if opts.UserID == "" {
		return nil, fmt.Errorf("conversation: create: %w: user id is required", ErrInvalidInput)
	}
	if opts.Role == "" {
		return nil, fmt.Errorf("conversation: create: %w: role is required", ErrInvalidInput)
	}
	now := s.now()
	conv := models.Conversation{
		ID:          newID(),
		UserID:      opts.UserID,
		Role:        opts.Role,
		Title:       opts.Title,
		TitleFolded: foldTitle(opts.Title),
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if opts.Context != nil {
		conv.Context = datatypes.JSONMap(opts.Context)
	}
	if err := s.db.WithContext(ctx).Create(&conv).Error; err != nil {
		return nil, persistence("create", err)
	}
	s.log.Debug("conversation: created", "conversation_id", conv.ID, "user_id", conv.UserID, "role", conv.Role)
	return &conv, nil
}

// Get returns the conversation with the given id.
func (s *Store) Get(ctx context.Context, id string) (*models.Conversation, error) {
	return get(s.db.WithContext(ctx), id)
}

func get(db *gorm.DB, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := db.Where("id = ?", id).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, persistence("get "+id, err)
	}
	return &conv, nil
}

// ListByUser returns one page of a user's conversations, most recently active
// first. Conversations without messages sort after those with messages, by
// creation time. An empty status matches every status. The second return is
// the total count ignoring paging.
func (s *Store) ListByUser(ctx context.Context, userID string, page Page, status string) ([]models.Conversation, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Conversation{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return s.pageConversations(q, page, "list")
}

// SearchByTitle returns one page of a user's conversations whose title
// contains term, ignoring case. Both sides are folded in Go, so non-ASCII
// letters match on every driver. Wildcard characters in term match literally.
func (s *Store) SearchByTitle(ctx context.Context, userID, term string, page Page) ([]models.Conversation, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	q := s.db.WithContext(ctx).Model(&models.Conversation{}).
		Where("user_id = ?", userID).
		Where("title_folded LIKE ? ESCAPE '!'", pattern)
	return s.pageConversations(q, page, "search")
}

func (s *Store) pageConversations(q *gorm.DB, page Page, op string) ([]models.Conversation, int64, error) {
	page = page.normalize()
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, persistence(op+" count", err)
	}
	convs := []models.Conversation{}
	if err := q.Order("last_message_at IS NULL, last_message_at DESC, created_at DESC").
		Offset(page.Offset).Limit(page.Limit).Find(&convs).Error; err != nil {
		return nil, 0, persistence(op, err)
	}
	return convs, total, nil
}

func foldTitle(title *string) *string {
	if title == nil {
		return nil
	}
	folded := strings.ToLower(*title)
	return &folded
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Update applies opts to the conversation inside a transaction holding the
// row lock. Status changes are validated against ValidTransitions; setting
// the current status again is a no-op.
func (s *Store) Update(ctx context.Context, id string, opts UpdateOpts) (*models.Conversation, error) {
	var conv *models.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(id)
			}
			return persistence("get "+id+" for update", err)
		}

		updates := map[string]interface{}{}
		if opts.Status != "" && opts.Status != current.Status {
			if !isValidTransition(current.Status, opts.Status) {
				return fmt.Errorf("conversation: update %s: %w from %q to %q; valid transitions: %v",
					id, ErrInvalidTransition, current.Status, opts.Status, ValidTransitions[current.Status])
			}
			updates["status"] = opts.Status
		}
		if opts.Title != nil && *opts.Title != "" {
			updates["title"] = *opts.Title
			updates["title_folded"] = strings.ToLower(*opts.Title)
		}
		if opts.Context != nil {
			updates["context"] = datatypes.JSONMap(opts.Context)
		}

		if len(updates) > 0 {
			updates["updated_at"] = s.now()
			if err := tx.Model(&models.Conversation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return persistence("update "+id, err)
			}
		}

		var err error
		conv, err = get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Archive moves the conversation to archived. Archiving an archived
// conversation succeeds without change.
func (s *Store) Archive(ctx context.Context, id string) (*models.Conversation, error) {
	return s.Update(ctx, id, UpdateOpts{Status: models.StatusArchived})
}

// Delete removes the conversation and all of its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.ConversationMessage{}).Error; err != nil {
			return persistence("delete messages of "+id, err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Conversation{})
		if result.Error != nil {
			return persistence("delete "+id, result.Error)
		}
		if result.RowsAffected == 0 {
			return notFound(id)
		}
		return nil
	})
}

func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}
