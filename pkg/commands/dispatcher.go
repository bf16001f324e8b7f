package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/message"
)

type Outcome int

const (
	// OutcomeNone means nothing should be sent back.
	OutcomeNone Outcome = iota
	OutcomeExact
	OutcomeFuzzy
	// OutcomeAmbiguous carries a clarifying reply naming the tied handlers.
	OutcomeAmbiguous
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeExact:
		return "exact"
	case OutcomeFuzzy:
		return "fuzzy"
	case OutcomeAmbiguous:
		return "ambiguous"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type Result struct {
	Outcome Outcome
	// Handler is the name of the invoked definition, empty when none ran.
	Handler string
	Reply   string
	Err     error
}

// Replied reports whether Reply should be published. An empty Reply with
// Replied true is a legitimate empty answer.
func (r Result) Replied() bool {
	return r.Outcome != OutcomeNone && r.Err == nil
}

type Dispatching interface {
	Dispatch(ctx context.Context, msg message.Message) Result
}

type DispatchFunc func(ctx context.Context, msg message.Message) Result

func (f DispatchFunc) Dispatch(ctx context.Context, msg message.Message) Result {
	return f(ctx, msg)
}

type Option func(*Dispatcher)

// WithThreshold sets the similarity score compared against by the closeness test.
func WithThreshold(threshold int) Option {
	return func(d *Dispatcher) { d.threshold = threshold }
}

// WithCloseness sets which side of the threshold counts as close.
func WithCloseness(c Closeness) Option {
	return func(d *Dispatcher) { d.closeness = c }
}

type Dispatcher struct {
	reg       *Registry
	threshold int
	closeness Closeness
}

func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		reg:       reg,
		threshold: DefaultThreshold,
		closeness: ClosenessBelow,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves msg to at most one handler invocation. Handler errors
// are returned in Result.Err and panics are not recovered.
func (d *Dispatcher) Dispatch(ctx context.Context, msg message.Message) Result {
	cmd := SplitCommand(msg.Body())

	for _, def := range d.reg.defs {
		if !def.Matches(msg, cmd) {
			continue
		}
		reply, err := d.invoke(ctx, def, msg, cmd)
		return Result{Outcome: OutcomeExact, Handler: def.Name, Reply: reply, Err: err}
	}

	return d.fallback(ctx, msg, cmd)
}

func (d *Dispatcher) fallback(ctx context.Context, msg message.Message, cmd Command) Result {
	if msg.FromBot() {
		return Result{Outcome: OutcomeNone}
	}

	pool := d.closeCandidates(cmd.Name)
	if len(pool) == 0 {
		return Result{Outcome: OutcomeNone}
	}
	if len(pool) > 1 {
		pool = bestScoring(pool, cmd.Name)
	}
	if len(pool) == 1 {
		def := pool[0]
		reply, err := d.invoke(ctx, def, msg, cmd)
		if err != nil {
			return Result{Outcome: OutcomeFuzzy, Handler: def.Name, Err: err}
		}
		reply += fmt.Sprintf("\n%s: It was %s, NOOOOB!", msg.Nick(), def.Invocation())
		return Result{Outcome: OutcomeFuzzy, Handler: def.Name, Reply: reply}
	}

	names := make([]string, len(pool))
	for i, def := range pool {
		names[i] = def.Invocation()
	}
	logger.DebugCF("commands", "Ambiguous command", map[string]any{
		"command":    cmd.Name,
		"candidates": names,
	})
	return Result{
		Outcome: OutcomeAmbiguous,
		Reply:   "Did you mean any of " + strings.Join(names, ", ") + "?",
	}
}

// closeCandidates returns public, name-triggered definitions that pass the
// closeness test for command. Room whitelists are not consulted.
func (d *Dispatcher) closeCandidates(command string) []Definition {
	var pool []Definition
	for _, def := range d.reg.defs {
		if def.Hidden || def.Condition != nil {
			continue
		}
		if d.closeness.close(Ratio(command, def.Invocation()), d.threshold) {
			pool = append(pool, def)
		}
	}
	return pool
}

func bestScoring(pool []Definition, command string) []Definition {
	scores := make([]int, len(pool))
	best := -1
	for i, def := range pool {
		scores[i] = Ratio(command, def.Invocation())
		best = max(best, scores[i])
	}
	out := make([]Definition, 0, len(pool))
	for i, def := range pool {
		if scores[i] == best {
			out = append(out, def)
		}
	}
	return out
}

func (d *Dispatcher) invoke(ctx context.Context, def Definition, msg message.Message, cmd Command) (string, error) {
	if def.Handler == nil {
		return "", fmt.Errorf("commands: handler %q has no function", def.Name)
	}
	logger.DebugCF("commands", "Invoking handler", map[string]any{
		"handler": def.Name,
		"room":    msg.Room(),
		"nick":    msg.Nick(),
	})
	return def.Handler(ctx, msg, cmd.Args)
}
