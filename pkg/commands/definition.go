package commands

import (
	"context"
	"slices"

	"github.com/sipeed/redisbot/pkg/message"
)

// Prefix is prepended to a handler name to form the word that invokes it.
const Prefix = "bot"

// Handler produces the reply text for a message. args are the words that
// followed the command.
type Handler func(ctx context.Context, msg message.Message, args []string) (string, error)

// Condition decides whether a definition accepts a message.
type Condition func(msg message.Message) bool

type Definition struct {
	Name string
	// Description documents the handler; its first line appears in help.
	Description string
	// Condition replaces the default "bot<Name>" match when set.
	Condition Condition
	// Rooms restricts matching to these mucroom values when non-empty.
	Rooms []string
	// Hidden keeps the handler out of help and fuzzy fallback.
	Hidden  bool
	Handler Handler
}

// Invocation is the word that triggers d under the default condition.
func (d Definition) Invocation() string {
	return Prefix + d.Name
}

// Matches evaluates the definition's condition and room whitelist. cmd must
// be the tokenized body of msg.
func (d Definition) Matches(msg message.Message, cmd Command) bool {
	var ok bool
	if d.Condition != nil {
		ok = d.Condition(msg)
	} else {
		ok = cmd.Name == d.Invocation()
	}
	return ok && d.inRoom(msg.Room())
}

func (d Definition) inRoom(room string) bool {
	return len(d.Rooms) == 0 || slices.Contains(d.Rooms, room)
}
