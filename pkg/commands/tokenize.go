package commands

import (
	"regexp"

	"github.com/kballard/go-shellquote"

	"github.com/sipeed/redisbot/pkg/logger"
)

// whitespaceRuns matches Unicode whitespace, including \v, NEL and the
// separator category.
var whitespaceRuns = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)

// Command is a message body split into words.
type Command struct {
	Name   string
	Args   []string
	Tokens []string
}

// SplitCommand tokenizes body like a shell would, without comment handling.
// Bodies with unbalanced quoting or a trailing escape fall back to splitting
// on whitespace runs.
func SplitCommand(body string) Command {
	tokens, err := shellquote.Split(body)
	if err != nil {
		logger.WarnCF("commands", "Could not shell-split body, falling back to whitespace", map[string]any{
			"body":  body,
			"error": err.Error(),
		})
		tokens = whitespaceRuns.Split(body, -1)
	}

	cmd := Command{Tokens: tokens}
	if len(tokens) > 0 {
		cmd.Name = tokens[0]
		cmd.Args = tokens[1:]
	}
	if cmd.Args == nil {
		cmd.Args = []string{}
	}
	return cmd
}
