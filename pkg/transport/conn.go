package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/message"
)

var (
	// ErrClosed is returned by operations on a closed endpoint.
	ErrClosed = errors.New("transport: closed")
	// ErrBusy is returned when a second subscription is started on one endpoint.
	ErrBusy = errors.New("transport: already listening")
)

const (
	DefaultChannelFrom    = "bot:comm:from"
	DefaultChannelTo      = "bot:comm:to"
	DefaultChannelControl = "bot:comm:control"
)

// Channels names the three pub/sub channels. From carries chat messages to
// the router, To carries replies back to the adapter, Control carries
// operator commands for adapters.
type Channels struct {
	From    string
	To      string
	Control string
}

func DefaultChannels() Channels {
	return Channels{
		From:    DefaultChannelFrom,
		To:      DefaultChannelTo,
		Control: DefaultChannelControl,
	}
}

type Options struct {
	Addr     string
	Password string
	DB       int
	Channels Channels
}

// lazyConn opens a single-connection redis client on first use.
type lazyConn struct {
	opts   *redis.Options
	mu     sync.Mutex
	client *redis.Client
	closed bool
}

func (c *lazyConn) get(ctx context.Context) (*redis.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.client != nil {
		return c.client, nil
	}

	client := redis.NewClient(c.opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("transport: connect %s: %w", c.opts.Addr, err)
	}
	logger.DebugCF("transport", "Connected", map[string]any{"addr": c.opts.Addr})
	c.client = client
	return client, nil
}

func (c *lazyConn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// endpoint owns one outgoing and one incoming connection to the broker.
type endpoint struct {
	opts      Options
	outgoing  *lazyConn
	incoming  *lazyConn
	sendMu    sync.Mutex
	listening atomic.Bool
}

func newEndpoint(opts Options) *endpoint {
	if opts.Channels == (Channels{}) {
		opts.Channels = DefaultChannels()
	}
	ropts := func() *redis.Options {
		return &redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
			PoolSize: 1,
		}
	}
	return &endpoint{
		opts:     opts,
		outgoing: &lazyConn{opts: ropts()},
		incoming: &lazyConn{opts: ropts()},
	}
}

func (e *endpoint) Channels() Channels { return e.opts.Channels }

func (e *endpoint) publish(ctx context.Context, channel string, msg message.Message) error {
	wire, err := message.Encode(msg)
	if err != nil {
		return err
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	client, err := e.outgoing.get(ctx)
	if err != nil {
		return err
	}
	if err := client.Publish(ctx, channel, wire).Err(); err != nil {
		return fmt.Errorf("transport: publish %s: %w", channel, err)
	}
	return nil
}

type deliverFunc func(ctx context.Context, channel string, msg message.Message) error

// subscribe delivers decoded payloads from channels in arrival order until
// ctx ends, the connection fails or deliver returns an error.
func (e *endpoint) subscribe(ctx context.Context, channels []string, deliver deliverFunc) error {
	if !e.listening.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.listening.Store(false)

	client, err := e.incoming.get(ctx)
	if err != nil {
		return err
	}

	ps := client.Subscribe(ctx, channels...)
	defer ps.Close()
	// Blocking reads only observe deadlines, so cancellation closes the subscription.
	stop := context.AfterFunc(ctx, func() { ps.Close() })
	defer stop()

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("transport: subscribe %v: %w", channels, err)
	}
	logger.InfoCF("transport", "Subscribed", map[string]any{"channels": channels})

	for {
		m, err := ps.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("transport: receive: %w", err)
		}

		msg, err := message.Decode(m.Payload)
		if err != nil {
			logger.WarnCF("transport", "Dropping undecodable payload", map[string]any{
				"channel": m.Channel,
				"error":   err.Error(),
			})
			continue
		}
		if err := deliver(ctx, m.Channel, msg); err != nil {
			return err
		}
	}
}

func (e *endpoint) Close() error {
	return errors.Join(e.outgoing.close(), e.incoming.close())
}
