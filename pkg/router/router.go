// Package router runs the listener loop: it pulls chat messages from the
// broker one at a time, dispatches them, and publishes any reply before
// taking the next message.
package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sipeed/redisbot/pkg/bus"
	"github.com/sipeed/redisbot/pkg/commands"
	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/message"
)

// Source feeds inbound messages onto q until ctx ends or it fails, closing
// q on return.
type Source interface {
	Listen(ctx context.Context, q *bus.Queue) error
}

// Sink publishes a reply to msg.
type Sink interface {
	Answer(ctx context.Context, msg message.Message, text string) error
}

// PanicError is a recovered handler panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

type Option func(*Router)

// WithQueueSize bounds the number of received messages awaiting dispatch.
func WithQueueSize(n int) Option {
	return func(r *Router) { r.queueSize = n }
}

type Router struct {
	src        Source
	sink       Sink
	dispatcher commands.Dispatching
	queueSize  int
}

func New(src Source, sink Sink, d commands.Dispatching, opts ...Option) *Router {
	r := &Router{
		src:        src,
		sink:       sink,
		dispatcher: d,
		queueSize:  bus.DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until ctx is cancelled, returning nil, or until the source or the
// sink fails, returning that error. Handler failures are logged and skipped.
func (r *Router) Run(ctx context.Context) error {
	q := bus.NewQueue(r.queueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.src.Listen(gctx, q)
	})
	g.Go(func() error {
		return r.loop(gctx, q)
	})

	logger.InfoC("router", "Listening")
	err := g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		logger.InfoC("router", "Stopped")
		return nil
	}
	if err == nil {
		err = errors.New("router: inbound stream ended")
	}
	return err
}

func (r *Router) loop(ctx context.Context, q *bus.Queue) error {
	for {
		msg, ok := q.Consume(ctx)
		if !ok {
			return nil
		}
		if err := r.handle(ctx, msg); err != nil {
			return err
		}
	}
}

// handle dispatches one message and waits for its reply to be published.
func (r *Router) handle(ctx context.Context, msg message.Message) error {
	fields := map[string]any{
		"trace": uuid.NewString(),
		"room":  msg.Room(),
		"nick":  msg.Nick(),
	}

	res := r.dispatch(ctx, msg)
	fields["outcome"] = res.Outcome.String()
	if res.Handler != "" {
		fields["handler"] = res.Handler
	}

	if res.Err != nil {
		fields["error"] = res.Err.Error()
		var pe *PanicError
		if errors.As(res.Err, &pe) {
			fields["stack"] = pe.Stack
		}
		logger.ErrorCF("router", "Handler failed", fields)
		return nil
	}
	if !res.Replied() {
		logger.DebugCF("router", "No reply", fields)
		return nil
	}

	if err := r.sink.Answer(ctx, msg, res.Reply); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("router: answer: %w", err)
	}
	logger.DebugCF("router", "Replied", fields)
	return nil
}

func (r *Router) dispatch(ctx context.Context, msg message.Message) (res commands.Result) {
	defer func() {
		if v := recover(); v != nil {
			res = commands.Result{Err: &PanicError{Value: v, Stack: string(debug.Stack())}}
		}
	}()
	return r.dispatcher.Dispatch(ctx, msg)
}
