package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// hubServer is a minimal in-process notification hub for channel tests.
type hubServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	server   *httptest.Server

	mu        sync.Mutex
	conns     []*websocket.Conn
	connCount int32

	frames chan frame
	tokens chan string
}

func newHubServer(t *testing.T) *hubServer {
	t.Helper()

	h := &hubServer{
		t:      t,
		frames: make(chan frame, 16),
		tokens: make(chan string, 16),
	}
	h.server = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.server.Close)
	return h
}

func (h *hubServer) handle(w http.ResponseWriter, r *http.Request) {
	h.tokens <- r.URL.Query().Get("access_token")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()
	atomic.AddInt32(&h.connCount, 1)

	go func() {
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			h.frames <- f
		}
	}()
}

func (h *hubServer) url() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http")
}

func (h *hubServer) connections() int {
	return int(atomic.LoadInt32(&h.connCount))
}

// push writes a ReceiveNotification frame on the latest connection.
func (h *hubServer) push(payload string) {
	h.mu.Lock()
	conn := h.conns[len(h.conns)-1]
	h.mu.Unlock()

	// Write the envelope by hand: WriteJSON would compact the payload's
	// whitespace, and these tests assert byte-verbatim delivery.
	msg := []byte(`{"target":"` + receiveTarget + `","payload":` + payload + `}`)
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		h.t.Fatalf("pushing frame: %v", err)
	}
}

// dropAll closes every server-side connection to simulate transport loss.
func (h *hubServer) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, conn := range h.conns {
		conn.Close()
	}
	h.conns = nil
}

func newTestChannel(h *hubServer, token func() string) *Channel {
	return NewChannel(ChannelConfig{
		HubURL:               h.url(),
		Token:                token,
		MaxReconnectAttempts: 3,
		Logger:               slog.New(slog.DiscardHandler),
	})
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func expectFrame(t *testing.T, h *hubServer, target string) frame {
	t.Helper()
	select {
	case f := <-h.frames:
		if f.Target != target {
			t.Fatalf("frame target = %q, want %q", f.Target, target)
		}
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s frame received", target)
		return frame{}
	}
}

func TestChannelStartIdempotent(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)
	defer ch.Stop()

	ctx := context.Background()
	if err := ch.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := ch.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if got := h.connections(); got != 1 {
		t.Errorf("connections = %d, want 1", got)
	}
	if ch.State() != StateConnected {
		t.Errorf("state = %v, want connected", ch.State())
	}
}

func TestChannelInitialConnectFailure(t *testing.T) {
	ch := NewChannel(ChannelConfig{
		HubURL: "ws://127.0.0.1:1", // nothing listens here
		Logger: slog.New(slog.DiscardHandler),
	})

	if err := ch.Start(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	if ch.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected after failed connect", ch.State())
	}
}

func TestChannelSuppliesTokenFreshlyPerDial(t *testing.T) {
	h := newHubServer(t)

	var current atomic.Value
	current.Store("token-one")
	ch := newTestChannel(h, func() string { return current.Load().(string) })
	defer ch.Stop()

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := <-h.tokens; got != "token-one" {
		t.Errorf("first dial token = %q, want token-one", got)
	}

	ch.Stop()
	current.Store("token-two")

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := <-h.tokens; got != "token-two" {
		t.Errorf("second dial token = %q, want token-two", got)
	}
}

func TestChannelRegisterConnectsFirst(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)
	defer ch.Stop()

	if err := ch.Register(context.Background(), "7"); err != nil {
		t.Fatalf("register: %v", err)
	}

	f := expectFrame(t, h, registerTarget)
	if len(f.Arguments) != 1 || f.Arguments[0] != "7" {
		t.Errorf("register arguments = %v, want [7]", f.Arguments)
	}
	if ch.State() != StateConnected {
		t.Errorf("state = %v, want connected after register", ch.State())
	}
}

func TestChannelSubscribeAndUnsubscribe(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)
	defer ch.Stop()

	received := make(chan string, 4)
	unsub := ch.Subscribe(func(payload json.RawMessage) {
		received <- string(payload)
	})

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	h.push(`{"message": "hello"}`)
	select {
	case got := <-received:
		if got != `{"message": "hello"}` {
			t.Errorf("payload = %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the push")
	}

	unsub()
	h.push(`{"message": "after unsubscribe"}`)
	select {
	case got := <-received:
		t.Errorf("unsubscribed listener received %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestChannelSubscriberPanicIsolated(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)
	defer ch.Stop()

	received := make(chan string, 4)
	ch.Subscribe(func(json.RawMessage) { panic("faulty subscriber") })
	ch.Subscribe(func(payload json.RawMessage) { received <- string(payload) })

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	h.push(`{"message": "still delivered"}`)
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking subscriber blocked delivery to others")
	}
}

func TestChannelReconnectsAndReregisters(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)
	defer ch.Stop()

	if err := ch.Register(context.Background(), "7"); err != nil {
		t.Fatalf("register: %v", err)
	}
	expectFrame(t, h, registerTarget)

	h.dropAll()

	// The channel retries with backoff, reconnects, and re-issues the
	// registration handshake since server routing state is gone.
	waitFor(t, 5*time.Second, func() bool {
		return h.connections() == 2
	}, "channel never reconnected")

	f := expectFrame(t, h, registerTarget)
	if len(f.Arguments) != 1 || f.Arguments[0] != "7" {
		t.Errorf("re-register arguments = %v, want [7]", f.Arguments)
	}

	waitFor(t, 2*time.Second, func() bool {
		return ch.State() == StateConnected
	}, "state never returned to connected")
}

func TestChannelRegisterDuringReconnectKeepsSingleConnection(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)
	defer ch.Stop()

	if err := ch.Register(context.Background(), "7"); err != nil {
		t.Fatalf("register: %v", err)
	}
	expectFrame(t, h, registerTarget)

	h.dropAll()
	waitFor(t, 2*time.Second, func() bool {
		return ch.State() == StateReconnecting
	}, "channel never entered reconnecting")

	// An identity switch mid-flap must not open a second dial; the new
	// identity rides along on the reconnect loop's own handshake.
	if err := ch.Register(context.Background(), "8"); err == nil {
		t.Fatal("expected register to fail while reconnecting")
	}

	waitFor(t, 5*time.Second, func() bool {
		return h.connections() == 2
	}, "channel never reconnected")

	f := expectFrame(t, h, registerTarget)
	if len(f.Arguments) != 1 || f.Arguments[0] != "8" {
		t.Errorf("re-register arguments = %v, want [8]", f.Arguments)
	}

	// Give any stray dial time to land; the count must not move again.
	time.Sleep(1500 * time.Millisecond)
	if got := h.connections(); got != 2 {
		t.Errorf("connections = %d, want 2", got)
	}
}

func TestChannelStopSuppressesReconnect(t *testing.T) {
	h := newHubServer(t)
	ch := newTestChannel(h, nil)

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	ch.Stop()
	if ch.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected after stop", ch.State())
	}

	// No reconnect attempt follows an explicit stop.
	time.Sleep(1500 * time.Millisecond)
	if got := h.connections(); got != 1 {
		t.Errorf("connections = %d after stop, want 1", got)
	}
}
