package channel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"easel/internal/logging"
)

// DefaultReconnectInterval is the fixed backoff applied between reconnect
// attempts after the connection drops.
const DefaultReconnectInterval = 3 * time.Second

// ErrClosed is returned by operations on a client that has been closed.
var ErrClosed = errors.New("channel client closed")

// Handler receives decoded broadcast envelopes for one subscription.
type Handler func(Envelope)

// Client maintains one logical websocket connection to the backend's event
// stream and exposes a subscribe/unsubscribe/send API. Subscriptions are
// deduplicated on the wire: a channel is subscribed once no matter how many
// local consumers hold it, and the outbound unsubscribe is deferred until the
// last consumer departs. Connection loss is recovered by a reconnect loop
// that re-subscribes every held channel.
type Client struct {
	url               string
	reconnectInterval time.Duration
	logger            *slog.Logger
	dialer            *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string][]*Subscription
	closed bool
	cancel context.CancelFunc

	writeMu sync.Mutex
}

// Subscription is the handle returned by Subscribe. Each consumer holds its
// own handle; dropping one never disturbs sibling consumers of the same
// channel.
type Subscription struct {
	client  *Client
	channel string
	handler Handler

	once sync.Once
}

// Option customizes the client.
type Option func(*Client)

// WithReconnectInterval overrides the fixed reconnect backoff.
func WithReconnectInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.reconnectInterval = interval
		}
	}
}

// WithLogger attaches a logger; the default discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// New constructs a client for the given websocket URL. The client does not
// connect until Connect is called.
func New(url string, opts ...Option) *Client {
	client := &Client{
		url:               url,
		reconnectInterval: DefaultReconnectInterval,
		logger:            logging.NewNop(),
		dialer:            websocket.DefaultDialer,
		subs:              make(map[string][]*Subscription),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Connect dials the event stream, sends a subscribe request for every
// channel already held, and starts the dispatch loop. The supplied context
// bounds the initial dial and the lifetime of the reconnect loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.cancel = cancel
	channels := make([]string, 0, len(c.subs))
	for name := range c.subs {
		channels = append(channels, name)
	}
	c.mu.Unlock()

	// Channels subscribed before the connection existed get their wire
	// subscribe now, mirroring what reconnect does after a drop.
	for _, name := range channels {
		if err := c.writeJSON(conn, subscribeFrame{Type: "subscribe", Channel: name}); err != nil {
			c.logger.Warn("subscribe request failed", slog.String("channel", name), slog.Any("error", err))
		}
	}

	go c.readLoop(loopCtx, conn)
	return nil
}

// Subscribe registers a handler for broadcasts on the named channel and
// returns a handle used to unregister it. The outbound subscribe request is
// sent only when the channel gains its first consumer; repeat calls are
// wire-level no-ops.
func (c *Client) Subscribe(channelName string, handler Handler) (*Subscription, error) {
	if handler == nil {
		return nil, errors.New("subscribe: handler required")
	}

	sub := &Subscription{client: c, channel: channelName, handler: handler}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	first := len(c.subs[channelName]) == 0
	c.subs[channelName] = append(c.subs[channelName], sub)
	conn := c.conn
	c.mu.Unlock()

	if first && conn != nil {
		if err := c.writeJSON(conn, subscribeFrame{Type: "subscribe", Channel: channelName}); err != nil {
			// The reconnect loop re-subscribes held channels, so the local
			// registration stays in place.
			c.logger.Warn("subscribe request failed", slog.String("channel", channelName), slog.Any("error", err))
		}
	}
	return sub, nil
}

// Unsubscribe releases the handle. The outbound unsubscribe request is sent
// only when the channel's last consumer departs; releasing an already
// released handle is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.client == nil {
		return
	}
	s.once.Do(func() {
		s.client.dropSubscription(s)
	})
}

func (c *Client) dropSubscription(sub *Subscription) {
	c.mu.Lock()
	consumers := c.subs[sub.channel]
	for i, candidate := range consumers {
		if candidate == sub {
			consumers = append(consumers[:i], consumers[i+1:]...)
			break
		}
	}
	last := len(consumers) == 0
	if last {
		delete(c.subs, sub.channel)
	} else {
		c.subs[sub.channel] = consumers
	}
	conn := c.conn
	closed := c.closed
	c.mu.Unlock()

	if last && conn != nil && !closed {
		if err := c.writeJSON(conn, subscribeFrame{Type: "unsubscribe", Channel: sub.channel}); err != nil {
			c.logger.Warn("unsubscribe request failed", slog.String("channel", sub.channel), slog.Any("error", err))
		}
	}
}

// Send wraps the payload in a message envelope and transmits it.
// Delivery is best-effort; the protocol carries no acknowledgement.
func (c *Client) Send(payload any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.New("send: not connected")
	}
	return c.writeJSON(conn, messageFrame{Type: "message", Payload: payload})
}

// Close tears the client down: every held channel is unsubscribed so no
// server-side subscription state leaks, then the connection is closed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	cancel := c.cancel
	c.cancel = nil
	channels := make([]string, 0, len(c.subs))
	for name := range c.subs {
		channels = append(channels, name)
	}
	c.subs = make(map[string][]*Subscription)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return nil
	}
	for _, name := range channels {
		_ = c.writeJSON(conn, subscribeFrame{Type: "unsubscribe", Channel: name})
	}
	return conn.Close()
}

func (c *Client) writeJSON(conn *websocket.Conn, value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(value)
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.reconnect(ctx, &conn) {
				return
			}
			continue
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			// Malformed frames are dropped rather than crashing dispatch.
			c.logger.Debug("dropping malformed frame", slog.Any("error", err))
			continue
		}
		c.dispatch(envelope)
	}
}

func (c *Client) dispatch(envelope Envelope) {
	if envelope.IsControl() {
		c.logger.Debug("control frame",
			slog.String("type", envelope.Type),
			slog.String("channel", envelope.Channel))
		return
	}

	c.mu.Lock()
	consumers := make([]*Subscription, len(c.subs[envelope.Channel]))
	copy(consumers, c.subs[envelope.Channel])
	c.mu.Unlock()

	for _, sub := range consumers {
		sub.handler(envelope)
	}
}

// reconnect redials after a fixed backoff and re-subscribes every channel
// that was held before the drop. It returns false when the client is closed
// or the loop context ends.
func (c *Client) reconnect(ctx context.Context, conn **websocket.Conn) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.conn = nil
	c.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.reconnectInterval):
		}

		next, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.logger.Warn("reconnect failed", slog.Any("error", err))
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = next.Close()
			return false
		}
		c.conn = next
		channels := make([]string, 0, len(c.subs))
		for name := range c.subs {
			channels = append(channels, name)
		}
		c.mu.Unlock()

		for _, name := range channels {
			if err := c.writeJSON(next, subscribeFrame{Type: "subscribe", Channel: name}); err != nil {
				c.logger.Warn("resubscribe failed", slog.String("channel", name), slog.Any("error", err))
			}
		}

		c.logger.Info("channel reconnected", slog.Int("channels", len(channels)))
		*conn = next
		return true
	}
}
