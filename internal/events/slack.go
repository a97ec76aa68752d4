package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	slackapi "github.com/slack-go/slack"
)

// maxRetries is the max number of retries for rate-limited API calls.
const maxRetries = 3

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// SlackPublisher posts events to a Slack channel as attachments.
type SlackPublisher struct {
	client    slackClient
	channelID string
}

// SlackOpts holds parameters for creating a SlackPublisher.
type SlackOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// NewSlackPublisher creates a SlackPublisher.
func NewSlackPublisher(opts SlackOpts) (*SlackPublisher, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("events: slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("events: slack: channel id is required")
	}
	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}
	return &SlackPublisher{client: client, channelID: opts.ChannelID}, nil
}

// Publish implements Publisher.
func (p *SlackPublisher) Publish(ctx context.Context, e Event) error {
	options := slackMessageOptions(Format(e))
	err := retryOnSlackRateLimit(ctx, func() error {
		_, _, postErr := p.client.PostMessageContext(ctx, p.channelID, options...)
		return postErr
	})
	if err != nil {
		return fmt.Errorf("events: slack: post %s: %w", e.Type, err)
	}
	return nil
}

func slackMessageOptions(f Formatted) []slackapi.MsgOption {
	att := slackapi.Attachment{
		Title:    f.Title,
		Text:     f.Body,
		Color:    f.Color,
		Fallback: f.Title,
	}
	for _, field := range f.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: field.Name,
			Value: field.Value,
			Short: field.Short,
		})
	}
	return []slackapi.MsgOption{
		slackapi.MsgOptionText(f.Title, false),
		slackapi.MsgOptionAttachments(att),
	}
}

// retryOnSlackRateLimit retries fn while Slack answers with a rate limit,
// honouring Retry-After and falling back to exponential backoff.
func retryOnSlackRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *slackapi.RateLimitedError
		if !errors.As(err, &rle) {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := rle.RetryAfter
		if wait <= 0 {
			wait = time.Duration(math.Pow(2, float64(attempt))) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
