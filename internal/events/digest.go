package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/parley/internal/conversation"
)

// StatsSource yields the statistics a digest reports on.
type StatsSource interface {
	Statistics(ctx context.Context, userID string) (*conversation.Statistics, error)
}

// Digest periodically publishes platform-wide conversation statistics.
type Digest struct {
	schedule  cron.Schedule
	source    StatsSource
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// DigestOpts holds parameters for creating a Digest.
type DigestOpts struct {
	Cron      string // standard 5-field cron expression
	Source    StatsSource
	Publisher Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewDigest creates a Digest.
func NewDigest(opts DigestOpts) (*Digest, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("events: digest: statistics source is required")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("events: digest: publisher is required")
	}
	schedule, err := cron.ParseStandard(opts.Cron)
	if err != nil {
		return nil, fmt.Errorf("events: digest: parse cron %q: %w", opts.Cron, err)
	}
	d := &Digest{
		schedule:  schedule,
		source:    opts.Source,
		publisher: opts.Publisher,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// NextRun returns the first fire time after t.
func (d *Digest) NextRun(t time.Time) time.Time {
	return d.schedule.Next(t)
}

// Run fires the digest on schedule until ctx is cancelled. Failures are
// logged and the schedule continues.
func (d *Digest) Run(ctx context.Context) {
	for {
		wait := time.Until(d.NextRun(d.now()))
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := d.RunOnce(ctx); err != nil {
				d.log.Warn("events: digest failed", "error", err)
			}
		}
	}
}

// RunOnce computes current statistics and publishes them as a
// statistics.digest event.
func (d *Digest) RunOnce(ctx context.Context) error {
	stats, err := d.source.Statistics(ctx, "")
	if err != nil {
		return fmt.Errorf("events: digest: statistics: %w", err)
	}
	payload := map[string]any{
		"total_conversations":               stats.TotalConversations,
		"active_conversations":              stats.ActiveConversations,
		"archived_conversations":            stats.ArchivedConversations,
		"total_messages":                    stats.TotalMessages,
		"total_tokens_used":                 stats.TotalTokensUsed,
		"average_messages_per_conversation": stats.AverageMessagesPerConv,
		"average_tokens_per_conversation":   stats.AverageTokensPerConv,
	}
	if stats.MostCommonRole != "" {
		payload["most_common_user_role"] = stats.MostCommonRole
	}
	err = d.publisher.Publish(ctx, Event{
		Type:       TypeStatisticsDigest,
		EntityType: EntityStatistics,
		EntityID:   "all",
		Payload:    payload,
		Timestamp:  d.now(),
	})
	if err != nil {
		return fmt.Errorf("events: digest: publish: %w", err)
	}
	return nil
}
