package transport

import (
	"context"

	"github.com/sipeed/redisbot/pkg/bus"
	"github.com/sipeed/redisbot/pkg/message"
)

// Client is the router's side of the broker: it listens on the From channel
// and publishes replies on the To channel.
type Client struct {
	*endpoint
}

func NewClient(opts Options) *Client {
	return &Client{endpoint: newEndpoint(opts)}
}

// Send publishes msg on the reply channel.
func (c *Client) Send(ctx context.Context, msg message.Message) error {
	return c.publish(ctx, c.opts.Channels.To, msg)
}

// Answer publishes msg with its text field set to text.
func (c *Client) Answer(ctx context.Context, msg message.Message, text string) error {
	return c.Send(ctx, msg.WithText(text))
}

// Listen subscribes once to the inbound channel and pushes every decoded
// message onto q in delivery order. It returns ctx.Err() on cancellation and
// the connection error otherwise; q is closed on return.
func (c *Client) Listen(ctx context.Context, q *bus.Queue) error {
	defer q.Close()
	return c.subscribe(ctx, []string{c.opts.Channels.From}, func(ctx context.Context, _ string, msg message.Message) error {
		return enqueue(ctx, q, msg)
	})
}

func enqueue(ctx context.Context, q *bus.Queue, msg message.Message) error {
	if q.Publish(ctx, msg) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}
