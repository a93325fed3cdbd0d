// Package stream maintains the logsSubscribe WebSocket connection to a
// Solana RPC node and delivers program log notifications with automatic
// reconnection.
package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// State is the connection lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Config configures the stream client.
type Config struct {
	URL        string
	ProgramID  string
	Commitment string

	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxAttempts     int
	CooldownPeriod  time.Duration
	PingInterval    time.Duration
	LivenessTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Commitment == "" {
		c.Commitment = "confirmed"
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.CooldownPeriod <= 0 {
		c.CooldownPeriod = DefaultCooldownPeriod
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.LivenessTimeout <= 0 {
		c.LivenessTimeout = DefaultLivenessTimeout
	}
}

// Client is a reconnecting logsSubscribe client. Events are delivered on
// the Events channel; the channel is closed when the client stops.
type Client struct {
	cfg    Config
	logger zerolog.Logger
	dialer *websocket.Dialer

	events chan LogEvent
	state  atomic.Int32

	requestID atomic.Uint64
	started   atomic.Bool

	// OnReconnect, if set, is invoked each time a connection attempt
	// starts after the first. Used for observability counters.
	OnReconnect func()
	// OnCooldown, if set, is invoked when the attempt budget is exhausted
	// and the client enters cooldown.
	OnCooldown func()

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewClient creates a stream client for the given WebSocket endpoint and
// program ID.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:    cfg,
		logger: logger.With().Str("component", "stream").Logger(),
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		events: make(chan LogEvent, 256),
		done:   make(chan struct{}),
	}
}

// Events returns the channel delivering decoded log notifications.
func (c *Client) Events() <-chan LogEvent {
	return c.events
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.logger.Debug().Str("from", old.String()).Str("to", s.String()).Msg("state transition")
	}
}

// Start launches the connection loop. It returns immediately; the loop runs
// until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.started.Store(true)
	go c.run(ctx)
}

// Stop terminates the connection loop and waits for it to exit. The events
// channel is closed before Stop returns. Stopping a client that was never
// started is a no-op.
func (c *Client) Stop() {
	c.once.Do(func() {
		if !c.started.Load() {
			return
		}
		c.cancel()
		<-c.done
	})
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)
	defer c.setState(StateIdle)

	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		if attempts == 0 {
			c.setState(StateConnecting)
		} else {
			c.setState(StateReconnecting)
			if c.OnReconnect != nil {
				c.OnReconnect()
			}
		}

		connected, err := c.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			// The session subscribed successfully; only consecutive failed
			// attempts count toward the cooldown budget.
			attempts = 0
		}
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempts+1).Msg("connection lost")
		}

		attempts++
		if attempts >= c.cfg.MaxAttempts {
			c.setState(StateCooldown)
			if c.OnCooldown != nil {
				c.OnCooldown()
			}
			c.logger.Error().
				Int("attempts", attempts).
				Dur("cooldown", c.cfg.CooldownPeriod).
				Msg("reconnect budget exhausted, cooling down")
			if !sleepCtx(ctx, c.cfg.CooldownPeriod) {
				return
			}
			attempts = 0
			continue
		}

		delay := Backoff(attempts, c.cfg.BaseDelay, c.cfg.MaxDelay)
		c.logger.Info().Dur("delay", delay).Int("attempt", attempts).Msg("reconnecting")
		if !sleepCtx(ctx, delay) {
			return
		}
	}
}

// connectAndRead dials, subscribes, and reads frames until the connection
// breaks or the context is cancelled. connected reports whether the
// subscription was acknowledged before the session ended.
func (c *Client) connectAndRead(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()

	if err := c.subscribe(conn); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	c.setState(StateConnected)
	c.logger.Info().Str("url", c.cfg.URL).Str("program", c.cfg.ProgramID).Msg("subscribed")

	// Any inbound frame, pong included, extends the read deadline.
	conn.SetReadDeadline(time.Now().Add(c.cfg.LivenessTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.LivenessTimeout))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go c.pingLoop(ctx, conn, pingDone)

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-pingDone:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.LivenessTimeout))

		kind, _, event := classify(data)
		if kind != KindLogsNotification || event == nil {
			continue
		}

		select {
		case c.events <- *event:
		case <-ctx.Done():
			return true, ctx.Err()
		default:
			c.logger.Warn().Str("signature", event.Signature).Msg("event buffer full, dropping notification")
		}
	}
}

// subscribe issues logsSubscribe for the configured program and waits for
// the acknowledgement.
func (c *Client) subscribe(conn *websocket.Conn) error {
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{c.cfg.ProgramID}},
			map[string]interface{}{"commitment": c.cfg.Commitment},
		},
	}

	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read ack: %w", err)
		}
		kind, subID, _ := classify(data)
		if kind == KindSubscribeAck {
			c.logger.Debug().Uint64("subscription", subID).Msg("subscription confirmed")
			return nil
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
