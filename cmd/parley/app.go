package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/zulandar/parley/internal/config"
	"github.com/zulandar/parley/internal/conversation"
	"github.com/zulandar/parley/internal/db"
	"github.com/zulandar/parley/internal/events"
	"github.com/zulandar/parley/internal/observability"
	"github.com/zulandar/parley/internal/session"
	"gorm.io/gorm"
)

// addConfigFlag registers the --config flag shared by every command that
// touches the database.
func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", "", "path to parley config file (built-in defaults when empty)")
}

// loadConfig reads configPath, or returns the defaults when it is empty.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// app is everything a command needs to talk to the session manager.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	log     *slog.Logger
	manager *session.Manager
}

// newApp connects, migrates and builds a Manager. Logs go to logOut. pubs
// receive lifecycle events after the log publisher.
func newApp(cfg *config.Config, logOut io.Writer, pubs ...events.Publisher) (*app, error) {
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	a := &app{cfg: cfg, db: gormDB}
	if err := a.init(logOut, pubs); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) init(logOut io.Writer, pubs []events.Publisher) error {
	log, err := observability.NewLogger(a.cfg.Log, logOut)
	if err != nil {
		return err
	}
	a.log = log
	if err := db.AutoMigrate(a.db); err != nil {
		return err
	}
	store, err := conversation.NewStore(conversation.StoreOpts{DB: a.db, Logger: log})
	if err != nil {
		return err
	}
	publisher := append(events.Multi{events.NewLogPublisher(log)}, pubs...)
	a.manager, err = session.NewManager(session.ManagerOpts{
		Store:     store,
		Publisher: publisher,
		Logger:    log,
		Limits: session.Limits{
			MaxMessageLength:      a.cfg.Limits.MaxMessageLength,
			MaxConversationLength: a.cfg.Limits.MaxConversationLength,
			HistoryWindow:         a.cfg.Limits.HistoryWindow,
		},
	})
	return err
}

// close releases the database connection.
func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// publishersFor builds the chat publishers enabled in cfg.
func publishersFor(cfg config.EventsConfig) ([]events.Publisher, error) {
	var pubs []events.Publisher
	if cfg.Slack.BotToken != "" {
		p, err := events.NewSlackPublisher(events.SlackOpts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}
	if cfg.Discord.BotToken != "" {
		p, err := events.NewDiscordPublisher(events.DiscordOpts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}
	return pubs, nil
}
