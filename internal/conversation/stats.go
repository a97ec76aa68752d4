package conversation

import (
	"context"
	"math"
	"sort"

	"github.com/zulandar/parley/internal/models"
	"gorm.io/gorm"
)

// Statistics aggregates conversation counters for one user or for everyone.
type Statistics struct {
	TotalConversations     int64            `json:"total_conversations"`
	ActiveConversations    int64            `json:"active_conversations"`
	ArchivedConversations  int64            `json:"archived_conversations"`
	TotalMessages          int64            `json:"total_messages"`
	AverageMessagesPerConv float64          `json:"average_messages_per_conversation"`
	TotalTokensUsed        int64            `json:"total_tokens_used"`
	AverageTokensPerConv   float64          `json:"average_tokens_per_conversation"`
	RoleDistribution       map[string]int64 `json:"user_role_distribution"`
	MostCommonRole         string           `json:"most_common_user_role,omitempty"`
}

type statsRow struct {
	Total    int64
	Active   int64
	Archived int64
	Messages int64
	Tokens   int64
}

type roleRow struct {
	Role  string
	Total int64
}

// Statistics computes aggregates over the user's conversations. An empty
// userID covers all users. Averages are 0 when there are no conversations
// and are rounded to two decimals.
func (s *Store) Statistics(ctx context.Context, userID string) (*Statistics, error) {
	base := s.db.WithContext(ctx).Model(&models.Conversation{})
	if userID != "" {
		base = base.Where("user_id = ?", userID)
	}
	base = base.Session(&gorm.Session{})

	var row statsRow
	if err := base.Select(
		"COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS archived, "+
			"COALESCE(SUM(message_count), 0) AS messages, "+
			"COALESCE(SUM(total_tokens), 0) AS tokens",
		models.StatusActive, models.StatusArchived,
	).Scan(&row).Error; err != nil {
		return nil, persistence("statistics", err)
	}

	var roles []roleRow
	if err := base.Select("role, COUNT(*) AS total").
		Group("role").Scan(&roles).Error; err != nil {
		return nil, persistence("role distribution", err)
	}

	stats := &Statistics{
		TotalConversations:     row.Total,
		ActiveConversations:    row.Active,
		ArchivedConversations:  row.Archived,
		TotalMessages:          row.Messages,
		TotalTokensUsed:        row.Tokens,
		AverageMessagesPerConv: average(row.Messages, row.Total),
		AverageTokensPerConv:   average(row.Tokens, row.Total),
		RoleDistribution:       make(map[string]int64, len(roles)),
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Total != roles[j].Total {
			return roles[i].Total > roles[j].Total
		}
		return roles[i].Role < roles[j].Role
	})
	for _, r := range roles {
		stats.RoleDistribution[r.Role] = r.Total
	}
	if len(roles) > 0 {
		stats.MostCommonRole = roles[0].Role
	}
	return stats, nil
}

func average(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*100) / 100
}
