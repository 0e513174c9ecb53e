package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cvebot/internal/bot"
	"cvebot/internal/config"
	"cvebot/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect the Slack bot and handle commands until interrupted",
	Long: `Connects to Slack in Socket Mode and serves the /lookup, /search,
/latest and /help slash commands. Requires SLACK_BOT_TOKEN and
SLACK_APP_TOKEN in the environment.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.BotFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%d", viper.GetInt("metrics.port"))
		if err := telemetry.StartMetricsServer(addr); err != nil {
			slog.Error("Metrics server stopped", "error", err)
		}
	}()

	b := bot.New(cfg, newNVDClient())
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
