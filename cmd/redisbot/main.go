// redisbot answers chat commands relayed over Redis pub/sub.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipeed/redisbot/cmd/redisbot/internal"
	"github.com/sipeed/redisbot/cmd/redisbot/internal/console"
	"github.com/sipeed/redisbot/cmd/redisbot/internal/run"
	"github.com/sipeed/redisbot/cmd/redisbot/internal/send"
	"github.com/sipeed/redisbot/cmd/redisbot/internal/tail"
	"github.com/sipeed/redisbot/cmd/redisbot/internal/version"
)

func NewRedisbotCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "redisbot",
		Short:         "Chat command bot on Redis pub/sub",
		Version:       internal.FormatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			internal.SetConfigPath(configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (JSON or .toml)")

	cmd.AddCommand(
		run.NewRunCommand(),
		send.NewSendCommand(),
		tail.NewTailCommand(),
		console.NewConsoleCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	if err := NewRedisbotCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
