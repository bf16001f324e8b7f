package version

import (
	"github.com/spf13/cobra"

	"github.com/sipeed/redisbot/cmd/redisbot/internal"
)

func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd)
		},
	}

	return cmd
}

func printVersion(cmd *cobra.Command) {
	cmd.Printf("redisbot %s\n", internal.FormatVersion())
	build, goVer := internal.FormatBuildInfo()
	if build != "" {
		cmd.Printf("  Build: %s\n", build)
	}
	if goVer != "" {
		cmd.Printf("  Go: %s\n", goVer)
	}
}
