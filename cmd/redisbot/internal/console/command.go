package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sipeed/redisbot/cmd/redisbot/internal"
	"github.com/sipeed/redisbot/pkg/commands"
	"github.com/sipeed/redisbot/pkg/message"
)

type consoleOptions struct {
	Room    string
	Nick    string
	FromBot bool
}

// lineReader is the part of readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
}

func NewConsoleCommand() *cobra.Command {
	var opts consoleOptions

	cmd := &cobra.Command{
		Use:     "console",
		Aliases: []string{"c"},
		Short:   "Try commands locally without a broker",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := internal.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := internal.SetupLogging(cfg, false); err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "bot> ",
				HistoryFile:     filepath.Join(os.TempDir(), ".redisbot_history"),
				HistoryLimit:    100,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("initializing readline: %w", err)
			}
			defer rl.Close()

			fmt.Println("Type a chat message, e.g. bothelp. Ctrl+C or exit to quit.")
			return interactiveMode(context.Background(), internal.NewDispatcher(cfg), rl, os.Stdout, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Room, "room", "r", "console", "Chat room to pretend the message comes from")
	cmd.Flags().StringVarP(&opts.Nick, "nick", "n", os.Getenv("USER"), "Nickname to pretend to be")
	cmd.Flags().BoolVar(&opts.FromBot, "from-bot", false, "Mark messages as written by a bot")

	return cmd
}

func interactiveMode(ctx context.Context, d commands.Dispatching, rl lineReader, out io.Writer, opts consoleOptions) error {
	fromBot := "False"
	if opts.FromBot {
		fromBot = "True"
	}

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		res := d.Dispatch(ctx, message.Message{
			message.FieldBody:    input,
			message.FieldRoom:    opts.Room,
			message.FieldNick:    opts.Nick,
			message.FieldFromBot: fromBot,
		})
		switch {
		case res.Err != nil:
			fmt.Fprintf(out, "error in %s: %v\n", res.Handler, res.Err)
		case !res.Replied():
			fmt.Fprintln(out, "(no reply)")
		default:
			fmt.Fprintln(out, res.Reply)
		}
	}
}
