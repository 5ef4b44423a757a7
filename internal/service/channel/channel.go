// Package channel maintains the single websocket connection to the proctoring server.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"proctorfeed/internal/dispatch"
	"proctorfeed/internal/logger"
	"proctorfeed/internal/wire"

	"github.com/gorilla/websocket"
)

var ErrNotConnected = errors.New("channel not connected")

const writeTimeout = 5 * time.Second

// Sink receives decoded inbound events.
type Sink interface {
	Submit(ev dispatch.Event) error
}

type Options struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	// OnConnect runs after every successful (re)connect.
	OnConnect func()
	Now       func() time.Time
	Dialer    *websocket.Dialer
}

// Client is a websocket client that reconnects by itself.
type Client struct {
	url    string
	sink   Sink
	logger *logger.Logger
	opts   Options

	writeMu   sync.Mutex // jeden pisarz naraz
	connMu    sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(url string, sink Sink, logger *logger.Logger, opts Options) *Client {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 500 * time.Millisecond
	}
	if opts.MaxReconnectDelay < opts.ReconnectDelay {
		opts.MaxReconnectDelay = opts.ReconnectDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Client{
		url:    url,
		sink:   sink,
		logger: logger,
		opts:   opts,
		done:   make(chan struct{}),
	}
}

// Start launches the connect/reconnect loop. Later calls are no-ops.
func (c *Client) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		ctx, c.cancel = context.WithCancel(ctx)
		go c.run(ctx)
	})
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Emit sends one event. It fails with ErrNotConnected when the channel is down.
func (c *Client) Emit(event string, payload interface{}) error {
	msg, err := wire.Encode(event, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn := c.current()
	if conn == nil || !c.connected.Load() {
		return ErrNotConnected
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		c.drop(conn)
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// Close stops reconnecting and closes the connection.
func (c *Client) Close() {
	started := false
	c.startOnce.Do(func() {}) // prevent a later Start
	if c.cancel != nil {
		started = true
		c.cancel()
	}
	if conn := c.current(); conn != nil {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.drop(conn)
	}
	if started {
		<-c.done
	}
}

func (c *Client) current() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

func (c *Client) drop(conn *websocket.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.connected.Store(false)
	}
	c.connMu.Unlock()
	conn.Close()
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	delay := c.opts.ReconnectDelay
	for {
		conn, _, err := c.opts.Dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warning("Cannot connect to %s: %v (retry in %s)", c.url, err, delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.opts.MaxReconnectDelay {
				delay = c.opts.MaxReconnectDelay
			}
			continue
		}

		delay = c.opts.ReconnectDelay
		c.connMu.Lock()
		c.conn = conn
		c.connected.Store(true)
		c.connMu.Unlock()
		if ctx.Err() != nil {
			c.drop(conn)
			return
		}

		c.logger.Info("🔌 Connected to %s", c.url)
		if c.opts.OnConnect != nil {
			c.opts.OnConnect()
		}

		c.readLoop(conn)
		c.drop(conn)

		if ctx.Err() != nil {
			return
		}
		c.logger.Warning("Connection to %s lost, reconnecting", c.url)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Read error: %v", err)
			}
			return
		}

		ev, err := wire.Decode(raw, c.opts.Now)
		if err != nil {
			if errors.Is(err, wire.ErrUnknownEvent) {
				c.logger.Debug("Ignoring message: %v", err)
			} else {
				c.logger.Warning("Dropping malformed message: %v", err)
			}
			continue
		}
		if err := c.sink.Submit(ev); err != nil {
			c.logger.Warning("Inbound event dropped: %v", err)
		}
	}
}
