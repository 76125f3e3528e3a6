package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChannelState is the push connection's lifecycle state.
type ChannelState int

const (
	StateDisconnected ChannelState = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String returns a short label for display in the UI status line.
func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "offline"
	}
}

// Wire protocol targets. The server pushes ReceiveNotification events and
// accepts a Register invocation that joins a user's delivery group.
const (
	receiveTarget  = "ReceiveNotification"
	registerTarget = "Register"
)

// hubPath is the server's push endpoint, relative to the API base URL.
const hubPath = "/notificationHub"

// frame is the JSON envelope exchanged on the push channel.
type frame struct {
	Target    string          `json:"target"`
	Arguments []string        `json:"arguments,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Subscriber receives each inbound push payload, in arrival order.
type Subscriber func(json.RawMessage)

// HubURL converts an HTTP API base URL into the websocket URL of the
// notification hub.
func HubURL(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(trimmed, "https://"):
		trimmed = "wss://" + strings.TrimPrefix(trimmed, "https://")
	case strings.HasPrefix(trimmed, "http://"):
		trimmed = "ws://" + strings.TrimPrefix(trimmed, "http://")
	}
	return trimmed + hubPath
}

// ChannelConfig holds construction parameters for a Channel.
type ChannelConfig struct {
	// HubURL is the websocket URL of the notification hub (see HubURL).
	HubURL string

	// Token supplies the session credential. It is read freshly on every
	// dial, so a token refresh between reconnects is honored.
	Token func() string

	// MaxReconnectAttempts caps automatic reconnection attempts after a
	// transport drop. Zero or negative uses a default of 6.
	MaxReconnectAttempts int

	// Dialer is used for all connection attempts. If nil,
	// websocket.DefaultDialer is used.
	Dialer *websocket.Dialer

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Channel maintains a single push connection to the notification hub.
// It reconnects automatically on transport loss and re-issues the
// identity registration handshake after every successful reconnect,
// since server-side group routing is lost across connections.
type Channel struct {
	url         string
	token       func() string
	dialer      *websocket.Dialer
	logger      *slog.Logger
	maxAttempts int

	mu         sync.Mutex
	state      ChannelState
	conn       *websocket.Conn
	subs       map[int]Subscriber
	nextSub    int
	registered string
	stopped    bool

	writeMu sync.Mutex
}

// NewChannel creates a push channel in the disconnected state.
func NewChannel(cfg ChannelConfig) *Channel {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 6
	}

	return &Channel{
		url:         cfg.HubURL,
		token:       token,
		dialer:      dialer,
		logger:      logger,
		maxAttempts: maxAttempts,
		state:       StateDisconnected,
		subs:        make(map[int]Subscriber),
	}
}

// State returns the current connection state.
func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start establishes the push connection. It is idempotent: when already
// connected, connecting, or reconnecting it returns without side effects,
// so there is never more than one dial in flight. A failed initial connect
// leaves the channel disconnected; there is no automatic retry of the
// first attempt.
func (c *Channel) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.stopped = false
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return fmt.Errorf("connecting push channel: %w", err)
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Info("push channel connected")
	go c.readLoop(conn)
	return nil
}

// Register joins the delivery group for userID. If the channel is not
// connected it connects first. The registered identity is remembered and
// re-issued after every reconnect. Failures are logged; callers treat
// registration as best-effort.
func (c *Channel) Register(ctx context.Context, userID string) error {
	if c.State() != StateConnected {
		if err := c.Start(ctx); err != nil {
			c.logger.Warn("register: connect failed", "error", err)
			return err
		}
	}

	c.mu.Lock()
	c.registered = userID
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("register: channel not connected")
	}

	if err := c.writeFrame(conn, frame{
		Target:    registerTarget,
		Arguments: []string{userID},
	}); err != nil {
		c.logger.Warn("register invocation failed", "user_id", userID, "error", err)
		return err
	}

	c.logger.Debug("registered for notifications", "user_id", userID)
	return nil
}

// Subscribe adds a listener for inbound push payloads and returns a
// function that removes exactly that listener. Listener panics are
// isolated so one faulty subscriber cannot block delivery to others.
func (c *Channel) Subscribe(fn Subscriber) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Stop closes the connection and suppresses automatic reconnection.
// It is a no-op when already disconnected.
func (c *Channel) Stop() {
	c.mu.Lock()
	c.stopped = true
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.registered = ""
	c.mu.Unlock()

	if conn != nil {
		// Best-effort close handshake; the read loop exits on the error.
		c.writeMu.Lock()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		conn.Close()
		c.logger.Info("push channel stopped")
	}
}

// dial opens a websocket connection, attaching the current credential as
// a query parameter. The token is read at call time, never cached.
func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	dialURL := c.url
	if token := c.token(); token != "" {
		dialURL += "?access_token=" + url.QueryEscape(token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, dialURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// writeFrame serializes an outbound frame. Writes are serialized because
// registration can race the reconnect handshake.
func (c *Channel) writeFrame(conn *websocket.Conn, f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(f)
}

// readLoop consumes inbound frames until the connection drops, then hands
// off to the reconnect sequence. Payloads are fanned out strictly in
// arrival order.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			c.handleDrop(conn, err)
			return
		}
		if f.Target == receiveTarget {
			c.fanout(f.Payload)
		}
	}
}

// handleDrop decides whether a read failure warrants reconnection. Stale
// connections (already replaced or stopped) are ignored.
func (c *Channel) handleDrop(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.stopped || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateReconnecting
	c.mu.Unlock()
	conn.Close()

	c.logger.Warn("push channel lost, reconnecting", "error", cause)
	c.reconnect()
}

// reconnect retries the connection with capped exponential backoff. On
// success it re-issues the registration handshake and resumes reading;
// when attempts are exhausted the channel goes back to disconnected.
func (c *Channel) reconnect() {
	backoff := time.Second

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		time.Sleep(backoff)
		if backoff < 30*time.Second {
			backoff *= 2
		}

		c.mu.Lock()
		if c.stopped || c.state != StateReconnecting {
			// Stop happened, or another path already owns the connection.
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := c.dial(dialCtx)
		cancel()
		if err != nil {
			c.logger.Debug("reconnect attempt failed",
				"attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		if c.stopped || c.state != StateReconnecting {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.state = StateConnected
		registered := c.registered
		c.mu.Unlock()

		c.logger.Info("push channel reconnected", "attempt", attempt)

		if registered != "" {
			if err := c.writeFrame(conn, frame{
				Target:    registerTarget,
				Arguments: []string{registered},
			}); err != nil {
				c.logger.Warn("re-register after reconnect failed",
					"user_id", registered, "error", err)
			}
		}

		go c.readLoop(conn)
		return
	}

	c.mu.Lock()
	if c.state == StateReconnecting {
		c.state = StateDisconnected
	}
	c.mu.Unlock()
	c.logger.Warn("push channel closed after exhausting reconnect attempts",
		"attempts", c.maxAttempts)
}

// fanout delivers a payload to every subscriber, isolating panics.
func (c *Channel) fanout(payload json.RawMessage) {
	c.mu.Lock()
	fns := make([]Subscriber, 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("notification subscriber panicked", "panic", r)
				}
			}()
			fn(payload)
		}()
	}
}
