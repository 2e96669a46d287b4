package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/crewplanhq/crewplan/internal/api"
	"github.com/crewplanhq/crewplan/internal/config"
	"github.com/crewplanhq/crewplan/internal/digest"
	"github.com/crewplanhq/crewplan/internal/notify"
	"github.com/crewplanhq/crewplan/internal/notify/discord"
	"github.com/crewplanhq/crewplan/internal/notify/slack"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the crewplan API server",
		Long:  "Serves the JSON API and runs the pending-review digest on its schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "crewplan.yaml", "path to crewplan config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gormDB, err := openDB(cfg)
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	dispatcher := buildDispatcher(cfg)
	defer dispatcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	runner := digest.NewRunner(gormDB, dispatcher, cfg.Digest.Schedule, cfg.Digest.StaleDays)
	go func() {
		if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("digest runner stopped", "err", err)
		}
	}()

	return api.Start(ctx, api.StartOpts{
		DB:         gormDB,
		Dispatcher: dispatcher,
		Port:       port,
		Out:        cmd.OutOrStdout(),
	})
}

// buildDispatcher wires the notification adapters that have credentials
// configured. With none configured the dispatcher is nil and all
// notifications are dropped.
func buildDispatcher(cfg *config.Config) *notify.Dispatcher {
	var adapters []notify.Adapter

	if cfg.Slack.BotToken != "" {
		adapters = append(adapters, slack.New(cfg.Slack.BotToken, cfg.Slack.Channel))
		log.Info("slack adapter enabled", "channel", cfg.Slack.Channel)
	}
	if cfg.Discord.BotToken != "" {
		a, err := discord.New(cfg.Discord.BotToken, cfg.Discord.Channel)
		if err != nil {
			log.Error("discord adapter disabled", "err", err)
		} else {
			adapters = append(adapters, a)
			log.Info("discord adapter enabled", "channel", cfg.Discord.Channel)
		}
	}

	if len(adapters) == 0 {
		return nil
	}
	return notify.NewDispatcher(adapters...)
}
