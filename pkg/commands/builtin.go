package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/sipeed/redisbot/pkg/message"
)

// HelpDefinition lists reg's public handlers, read at call time so handlers
// registered after help still appear.
func HelpDefinition(reg *Registry) Definition {
	return Definition{
		Name:        "help",
		Description: "List the available commands",
		Handler: func(context.Context, message.Message, []string) (string, error) {
			return FormatHelpMessage(reg.Public()), nil
		},
	}
}

// BuiltinDefinitions returns help, ping and echo bound to reg.
func BuiltinDefinitions(reg *Registry) []Definition {
	return []Definition{
		HelpDefinition(reg),
		{
			Name:        "ping",
			Description: "Answer pong",
			Handler:     replyText("pong"),
		},
		{
			Name:        "echo",
			Description: "Repeat the arguments\nQuoted words are kept together.",
			Handler: func(_ context.Context, _ message.Message, args []string) (string, error) {
				return strings.Join(args, " "), nil
			},
		},
	}
}

func FormatHelpMessage(defs []Definition) string {
	lines := make([]string, 0, len(defs))
	for _, def := range defs {
		lines = append(lines, fmt.Sprintf("%s: %s", def.Invocation(), summary(def.Description)))
	}
	return strings.Join(lines, "\n")
}

func summary(doc string) string {
	if doc == "" {
		return "not documented"
	}
	first, _, _ := strings.Cut(doc, "\n")
	return first
}

// Chance returns a condition that holds when a uniform draw is at least p,
// so p=1 almost never fires and p=0 always does.
func Chance(p float64) Condition {
	return func(message.Message) bool {
		return p <= rand.Float64()
	}
}

func replyText(text string) Handler {
	return func(context.Context, message.Message, []string) (string, error) {
		return text, nil
	}
}
