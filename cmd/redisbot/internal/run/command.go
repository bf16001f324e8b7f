package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sipeed/redisbot/cmd/redisbot/internal"
	"github.com/sipeed/redisbot/pkg/config"
	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/router"
	"github.com/sipeed/redisbot/pkg/transport"
)

func NewRunCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "run",
		Aliases: []string{"r"},
		Short:   "Listen for chat messages and answer commands",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := internal.SetupLogging(cfg, debug); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// Serve runs the bot against the configured broker until ctx ends.
func Serve(ctx context.Context, cfg *config.Config) error {
	client := transport.NewClient(cfg.TransportOptions())
	defer client.Close()

	r := router.New(client, client, internal.NewDispatcher(cfg), router.WithQueueSize(cfg.Router.QueueSize))

	ch := client.Channels()
	logger.InfoCF("cli", "Starting bot", map[string]any{
		"redis":   cfg.Redis.Addr(),
		"from":    ch.From,
		"to":      ch.To,
		"version": internal.FormatVersion(),
	})
	return r.Run(ctx)
}
