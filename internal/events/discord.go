package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	discordBaseBackoff = 2 * time.Second
	discordMaxBackoff  = 2 * time.Minute
)

// discordSession abstracts the discordgo.Session methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordPublisher posts events to a Discord channel as embeds. It only uses
// the REST API, so no gateway connection is opened.
type DiscordPublisher struct {
	sess        discordSession
	channelID   string
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// DiscordOpts holds parameters for creating a DiscordPublisher.
type DiscordOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of the real Discord API.
	Session discordSession
}

// NewDiscordPublisher creates a DiscordPublisher.
func NewDiscordPublisher(opts DiscordOpts) (*DiscordPublisher, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("events: discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("events: discord: channel id is required")
	}
	sess := opts.Session
	if sess == nil {
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("events: discord: create session: %w", err)
		}
		sess = s
	}
	return &DiscordPublisher{
		sess:        sess,
		channelID:   opts.ChannelID,
		baseBackoff: discordBaseBackoff,
		maxBackoff:  discordMaxBackoff,
	}, nil
}

// Publish implements Publisher.
func (p *DiscordPublisher) Publish(ctx context.Context, e Event) error {
	data := discordMessage(Format(e))
	err := p.retryOnRateLimit(ctx, func() error {
		_, sendErr := p.sess.ChannelMessageSendComplex(p.channelID, data, discordgo.WithContext(ctx))
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("events: discord: send %s: %w", e.Type, err)
	}
	return nil
}

func discordMessage(f Formatted) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title:       f.Title,
		Description: f.Body,
		Color:       parseHexColor(f.Color),
	}
	for _, field := range f.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   field.Name,
			Value:  field.Value,
			Inline: field.Short,
		})
	}
	return &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}
}

// parseHexColor converts "#rrggbb" to Discord's integer color. Invalid input
// yields 0.
func parseHexColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

func (p *DiscordPublisher) retryOnRateLimit(ctx context.Context, fn func() error) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var restErr *discordgo.RESTError
		if !errors.As(err, &restErr) || restErr.Response == nil || restErr.Response.StatusCode != http.StatusTooManyRequests {
			return err
		}
		if attempt == maxRetries {
			return err
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * p.baseBackoff
		if wait > p.maxBackoff {
			wait = p.maxBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil // unreachable
}
