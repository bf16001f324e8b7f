package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sipeed/redisbot/cmd/redisbot/internal"
	"github.com/sipeed/redisbot/pkg/bus"
	"github.com/sipeed/redisbot/pkg/config"
	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/message"
	"github.com/sipeed/redisbot/pkg/transport"
)

func NewTailCommand() *cobra.Command {
	var showControl bool

	cmd := &cobra.Command{
		Use:     "tail",
		Aliases: []string{"t"},
		Short:   "Print bot replies as they are published",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := internal.SetupLogging(cfg, false); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return tailCmd(ctx, cfg, os.Stdout, showControl)
		},
	}

	cmd.Flags().BoolVarP(&showControl, "control", "c", false, "Also print control commands")

	return cmd
}

func tailCmd(ctx context.Context, cfg *config.Config, out io.Writer, showControl bool) error {
	peer := transport.NewPeer(cfg.TransportOptions())
	defer peer.Close()

	replies := bus.NewQueue(cfg.Router.QueueSize)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return peer.Listen(gctx, replies, controlPrinter(out, showControl))
	})
	g.Go(func() error {
		for {
			msg, ok := replies.Consume(gctx)
			if !ok {
				return nil
			}
			fmt.Fprintln(out, formatReply(msg))
		}
	})

	err := g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

// controlPrinter echoes control commands when show is set. "debug" also
// dumps this process's goroutines to the log.
func controlPrinter(out io.Writer, show bool) transport.ControlFunc {
	return func(_ context.Context, body string) {
		if show {
			fmt.Fprintf(out, "[control] %s\n", body)
		}
		if body == "debug" {
			logger.InfoC("cli", "Goroutine dump requested")
			if err := dumpGoroutines(os.Stderr); err != nil {
				logger.WarnCF("cli", "Goroutine dump failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

func dumpGoroutines(w io.Writer) error {
	return pprof.Lookup("goroutine").WriteTo(w, 1)
}

func formatReply(msg message.Message) string {
	room := msg.Room()
	if room == "" {
		room = "-"
	}
	return fmt.Sprintf("[%s] %s: %s", room, msg.Nick(), msg.Text())
}
