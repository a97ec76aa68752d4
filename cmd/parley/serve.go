package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/parley/internal/api"
	"github.com/zulandar/parley/internal/events"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the conversation API, publishes lifecycle events to the log and
any configured Slack or Discord channel, and runs the statistics digest
when events.digest_cron is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	chat, err := publishersFor(cfg.Events)
	if err != nil {
		return err
	}

	stream := api.NewBroadcaster()
	a, err := newApp(cfg, cmd.ErrOrStderr(), append([]events.Publisher{stream}, chat...)...)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Events.DigestCron != "" {
		digest, err := events.NewDigest(events.DigestOpts{
			Cron:      cfg.Events.DigestCron,
			Source:    a.manager,
			Publisher: append(events.Multi{events.NewLogPublisher(a.log)}, chat...),
			Logger:    a.log,
		})
		if err != nil {
			return err
		}
		a.log.Info("serve: statistics digest scheduled", "cron", cfg.Events.DigestCron)
		go digest.Run(ctx)
	}

	if port <= 0 {
		port = cfg.Server.Port
	}
	return api.Start(ctx, api.StartOpts{
		Manager: a.manager,
		Port:    port,
		Out:     cmd.OutOrStdout(),
		Logger:  a.log,
		Stream:  stream,
	})
}
