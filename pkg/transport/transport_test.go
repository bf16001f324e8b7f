package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/redisbot/pkg/bus"
	"github.com/sipeed/redisbot/pkg/message"
)

func startRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { raw.Close() })
	return s, raw
}

func waitSubscribed(t *testing.T, raw *redis.Client, channel string) {
	t.Helper()
	require.Eventually(t, func() bool {
		n, err := raw.PubSubNumSub(context.Background(), channel).Result()
		return err == nil && n[channel] > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func consume(t *testing.T, q *bus.Queue) message.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := q.Consume(ctx)
	require.True(t, ok, "no message arrived")
	return msg
}

func listen(t *testing.T, run func(ctx context.Context) error) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestClient_ListenDecodesInOrder(t *testing.T) {
	s, raw := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	defer c.Close()

	q := bus.NewQueue(10)
	cancel, done := listen(t, func(ctx context.Context) error { return c.Listen(ctx, q) })
	waitSubscribed(t, raw, DefaultChannelFrom)

	for _, body := range []string{"botping", "botecho a", "bothelp"} {
		wire, err := message.Encode(message.Message{"body": body, "mucnick": "sam"})
		require.NoError(t, err)
		require.NoError(t, raw.Publish(context.Background(), DefaultChannelFrom, wire).Err())
	}

	for _, want := range []string{"botping", "botecho a", "bothelp"} {
		assert.Equal(t, want, consume(t, q).Body())
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	_, ok := q.Consume(context.Background())
	assert.False(t, ok, "queue should be closed after Listen returns")
}

func TestClient_ListenSkipsUndecodable(t *testing.T) {
	s, raw := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	defer c.Close()

	q := bus.NewQueue(10)
	listen(t, func(ctx context.Context) error { return c.Listen(ctx, q) })
	waitSubscribed(t, raw, DefaultChannelFrom)

	require.NoError(t, raw.Publish(context.Background(), DefaultChannelFrom, "garbage").Err())
	wire, err := message.Encode(message.Message{"body": "botping"})
	require.NoError(t, err)
	require.NoError(t, raw.Publish(context.Background(), DefaultChannelFrom, wire).Err())

	assert.Equal(t, "botping", consume(t, q).Body())
}

func TestClient_AnswerPublishesMessagePlusText(t *testing.T) {
	s, raw := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	defer c.Close()

	sub := raw.Subscribe(context.Background(), DefaultChannelTo)
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	orig := message.Message{"body": "botping", "mucroom": "lobby", "mucnick": "sam", "from_bot": "False"}
	require.NoError(t, c.Answer(context.Background(), orig, "pong"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	reply, err := message.Decode(got.Payload)
	require.NoError(t, err)
	assert.Equal(t, orig.WithText("pong"), reply)
	assert.NotContains(t, orig, "text")
}

func TestClient_ReusesOutgoingConnection(t *testing.T) {
	s, _ := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	defer c.Close()

	assert.Nil(t, c.outgoing.client, "connection should be lazy")
	require.NoError(t, c.Send(context.Background(), message.Message{"text": "one"}))
	first := c.outgoing.client
	require.NotNil(t, first)
	require.NoError(t, c.Send(context.Background(), message.Message{"text": "two"}))
	assert.Same(t, first, c.outgoing.client)
	assert.Nil(t, c.incoming.client)
}

func TestClient_SendAfterClose(t *testing.T) {
	s, _ := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	require.NoError(t, c.Close())

	err := c.Send(context.Background(), message.Message{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_ConnectFailure(t *testing.T) {
	s, _ := startRedis(t)
	addr := s.Addr()
	s.Close()

	c := NewClient(Options{Addr: addr})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Send(ctx, message.Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport: connect")
	assert.Nil(t, c.outgoing.client)
}

func TestClient_SecondListenIsBusy(t *testing.T) {
	s, raw := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	defer c.Close()

	listen(t, func(ctx context.Context) error { return c.Listen(ctx, bus.NewQueue(1)) })
	waitSubscribed(t, raw, DefaultChannelFrom)

	err := c.Listen(context.Background(), bus.NewQueue(1))
	assert.ErrorIs(t, err, ErrBusy)
}

func TestClient_ListenReturnsOnBrokerLoss(t *testing.T) {
	s, raw := startRedis(t)
	c := NewClient(Options{Addr: s.Addr()})
	defer c.Close()

	_, done := listen(t, func(ctx context.Context) error { return c.Listen(ctx, bus.NewQueue(1)) })
	waitSubscribed(t, raw, DefaultChannelFrom)

	s.Close()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.False(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return after the broker went away")
	}
}

func TestPeer_RoundTripWithClient(t *testing.T) {
	s, raw := startRedis(t)
	opts := Options{Addr: s.Addr()}
	router := NewClient(opts)
	defer router.Close()
	adapter := NewPeer(opts)
	defer adapter.Close()

	inbound := bus.NewQueue(10)
	replies := bus.NewQueue(10)
	var mu sync.Mutex
	var controls []string

	listen(t, func(ctx context.Context) error { return router.Listen(ctx, inbound) })
	listen(t, func(ctx context.Context) error {
		return adapter.Listen(ctx, replies, func(_ context.Context, body string) {
			mu.Lock()
			defer mu.Unlock()
			controls = append(controls, body)
		})
	})
	waitSubscribed(t, raw, DefaultChannelFrom)
	waitSubscribed(t, raw, DefaultChannelTo)
	waitSubscribed(t, raw, DefaultChannelControl)

	ctx := context.Background()
	require.NoError(t, adapter.Send(ctx, message.Message{"body": "botping", "mucnick": "sam"}))

	got := consume(t, inbound)
	assert.Equal(t, "botping", got.Body())
	require.NoError(t, router.Answer(ctx, got, "pong"))

	reply := consume(t, replies)
	assert.Equal(t, "pong", reply.Text())
	assert.Equal(t, "sam", reply.Nick())

	require.NoError(t, adapter.Control(ctx, "debug"))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(controls) == 1 && controls[0] == "debug"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, replies.Len(), "control commands must not reach the reply queue")
}

func TestChannels_Distinct(t *testing.T) {
	c := NewClient(Options{})
	ch := c.Channels()

	assert.Equal(t, DefaultChannels(), ch)
	assert.NotEqual(t, ch.Control, ch.From)
	assert.NotEqual(t, ch.Control, ch.To)
	assert.NotEqual(t, ch.From, ch.To)
}
