package transport

import (
	"context"

	"github.com/sipeed/redisbot/pkg/bus"
	"github.com/sipeed/redisbot/pkg/logger"
	"github.com/sipeed/redisbot/pkg/message"
)

// ControlFunc receives the body of each operator command seen on the
// control channel.
type ControlFunc func(ctx context.Context, body string)

// Peer is the chat adapter's side of the broker: it publishes chat messages
// on the From channel and receives replies and control commands.
type Peer struct {
	*endpoint
}

func NewPeer(opts Options) *Peer {
	return &Peer{endpoint: newEndpoint(opts)}
}

// Send publishes a chat message for the router.
func (p *Peer) Send(ctx context.Context, msg message.Message) error {
	return p.publish(ctx, p.opts.Channels.From, msg)
}

// Control publishes an operator command on the control channel.
func (p *Peer) Control(ctx context.Context, body string) error {
	return p.publish(ctx, p.opts.Channels.Control, message.Message{message.FieldBody: body})
}

// Listen pushes replies onto replies and hands control bodies to control.
// A nil control drops control commands. replies is closed on return.
func (p *Peer) Listen(ctx context.Context, replies *bus.Queue, control ControlFunc) error {
	defer replies.Close()
	ch := p.opts.Channels
	return p.subscribe(ctx, []string{ch.To, ch.Control}, func(ctx context.Context, channel string, msg message.Message) error {
		if channel == ch.Control {
			logger.DebugCF("transport", "Control command", map[string]any{"body": msg.Body()})
			if control != nil {
				control(ctx, msg.Body())
			}
			return nil
		}
		return enqueue(ctx, replies, msg)
	})
}
