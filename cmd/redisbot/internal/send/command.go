package send

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sipeed/redisbot/cmd/redisbot/internal"
	"github.com/sipeed/redisbot/pkg/config"
	"github.com/sipeed/redisbot/pkg/message"
	"github.com/sipeed/redisbot/pkg/transport"
)

type sendOptions struct {
	Room    string
	Nick    string
	FromBot bool
	Control bool
}

func NewSendCommand() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send <body...>",
		Short: "Publish a chat message as the adapter would",
		Example: `redisbot send --room lobby --nick sam botping
redisbot send --control debug`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return sendCmd(cmd.Context(), cfg, opts, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&opts.Room, "room", "r", "", "Chat room the message comes from")
	cmd.Flags().StringVarP(&opts.Nick, "nick", "n", "", "Nickname of the sender")
	cmd.Flags().BoolVar(&opts.FromBot, "from-bot", false, "Mark the message as written by a bot")
	cmd.Flags().BoolVar(&opts.Control, "control", false, "Publish the body on the control channel instead")

	return cmd
}

func sendCmd(ctx context.Context, cfg *config.Config, opts sendOptions, body string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("body is empty")
	}

	peer := transport.NewPeer(cfg.TransportOptions())
	defer peer.Close()

	if opts.Control {
		if err := peer.Control(ctx, body); err != nil {
			return fmt.Errorf("publish control command: %w", err)
		}
		fmt.Printf("Sent control command on %s\n", peer.Channels().Control)
		return nil
	}

	if err := peer.Send(ctx, chatMessage(opts, body)); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	fmt.Printf("Sent to %s\n", peer.Channels().From)
	return nil
}

func chatMessage(opts sendOptions, body string) message.Message {
	fromBot := "False"
	if opts.FromBot {
		fromBot = "True"
	}
	return message.Message{
		message.FieldBody:    body,
		message.FieldRoom:    opts.Room,
		message.FieldNick:    opts.Nick,
		message.FieldFromBot: fromBot,
	}
}
