package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/store"
)

// EventKind distinguishes the controller's outbound UI events.
type EventKind int

const (
	// EventRecordsChanged signals that the list or unread count changed.
	EventRecordsChanged EventKind = iota

	// EventToast carries a transient "new notification" signal.
	EventToast
)

// Event is a lightweight signal emitted to the UI layer. The UI reads
// derived state (Notifications, UnreadCount) rather than carrying data
// in the event itself.
type Event struct {
	Kind      EventKind
	ToastText string
}

// RealtimeChannel is the push transport consumed by the controller.
// *Channel implements it; tests substitute a fake.
type RealtimeChannel interface {
	Start(ctx context.Context) error
	Register(ctx context.Context, userID string) error
	Subscribe(fn Subscriber) func()
	Stop()
	State() ChannelState
}

// HistoryFetcher retrieves the server's historical notification snapshot
// for an identity, used once at cold start when the local cache is empty.
type HistoryFetcher func(ctx context.Context, userID string) ([]json.RawMessage, error)

// ControllerConfig holds construction parameters for a Controller.
type ControllerConfig struct {
	Store   store.NotificationStore
	Channel RealtimeChannel
	History HistoryFetcher

	// DedupWindow is the span within which two same-text records count as
	// one logical event. Zero uses 5 seconds.
	DedupWindow time.Duration

	// ToastThrottle is the minimum gap between two toasts with the same
	// text. Zero uses 2 seconds.
	ToastThrottle time.Duration

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger

	// Now and NewID exist for tests; nil uses time.Now and NewID.
	Now   func() time.Time
	NewID func() string
}

// Controller owns the per-session notification state: the active
// identity, the newest-first record list, and the unread counter. It is
// the only component that mutates this state; the channel merely delivers
// raw payloads into it. Every accepted mutation is written through to the
// durable store before the call returns.
type Controller struct {
	store         store.NotificationStore
	channel       RealtimeChannel
	history       HistoryFetcher
	dedupWindow   time.Duration
	toastThrottle time.Duration
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string

	mu            sync.Mutex
	userID        string
	records       []model.Notification
	unread        int
	lastToastAt   time.Time
	lastToastText string

	events chan Event
	unsub  func()
}

// NewController creates a controller and attaches it to the channel's
// payload stream. Call Close to detach and stop the channel.
func NewController(cfg ControllerConfig) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dedupWindow := cfg.DedupWindow
	if dedupWindow <= 0 {
		dedupWindow = 5 * time.Second
	}
	toastThrottle := cfg.ToastThrottle
	if toastThrottle <= 0 {
		toastThrottle = 2 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = NewID
	}

	c := &Controller{
		store:         cfg.Store,
		channel:       cfg.Channel,
		history:       cfg.History,
		dedupWindow:   dedupWindow,
		toastThrottle: toastThrottle,
		logger:        logger,
		now:           now,
		newID:         newID,
		events:        make(chan Event, 32),
	}

	if c.channel != nil {
		c.unsub = c.channel.Subscribe(c.handlePayload)
	}

	return c
}

// Events returns the stream of UI signals. Events are dropped rather
// than blocking the notification path when the consumer falls behind.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Notifications returns a copy of the current record list, newest first.
func (c *Controller) Notifications() []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Notification, len(c.records))
	copy(out, c.records)
	return out
}

// UnreadCount returns the current unread counter.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// ActiveUserID returns the identity the controller is scoped to,
// "" when logged out.
func (c *Controller) ActiveUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// ChannelState reports the push connection state for the UI status line.
func (c *Controller) ChannelState() ChannelState {
	if c.channel == nil {
		return StateDisconnected
	}
	return c.channel.State()
}

// SetIdentity reacts to an identity change: it tears down the previous
// session state and rehydrates from the durable cache for the new
// identity. When the local cache is empty it seeds it from the server's
// historical snapshot (cold-start reconciliation); when any local record
// exists the fetch is skipped so local state that may be ahead of the
// server is not clobbered. Finally it registers the identity on the push
// channel, or disconnects entirely on logout. Network failures are logged
// and non-fatal; the session continues with whatever local state exists.
func (c *Controller) SetIdentity(ctx context.Context, userID string) {
	c.mu.Lock()
	if userID == c.userID {
		c.mu.Unlock()
		return
	}
	c.userID = userID
	c.records = nil
	c.unread = 0
	c.lastToastAt = time.Time{}
	c.lastToastText = ""
	c.mu.Unlock()

	if userID == "" {
		if c.channel != nil {
			c.channel.Stop()
		}
		c.emit(Event{Kind: EventRecordsChanged})
		return
	}

	list, err := c.store.LoadNotifications(ctx, userID)
	if err != nil {
		c.logger.Warn("loading cached notifications failed",
			"user_id", userID, "error", err)
		list = nil
	}
	count, err := c.store.LoadUnreadCount(ctx, userID)
	if err != nil {
		c.logger.Warn("loading unread count failed",
			"user_id", userID, "error", err)
		count = 0
	}

	if len(list) == 0 {
		list = c.fetchSnapshot(ctx, userID)
	}

	c.mu.Lock()
	if c.userID != userID {
		// Identity changed again while hydrating; discard this result.
		c.mu.Unlock()
		return
	}
	// Pushes accepted while hydrating were prepended to the empty list;
	// replay them on top of the hydrated one so none are lost.
	live := c.records
	added := 0
	for i := len(live) - 1; i >= 0; i-- {
		if IsDuplicate(live[i], list, c.dedupWindow) {
			continue
		}
		list = append([]model.Notification{live[i]}, list...)
		added++
	}
	c.records = list
	c.unread = count + added
	records := make([]model.Notification, len(list))
	copy(records, list)
	unread := c.unread
	c.mu.Unlock()

	if added > 0 {
		c.persist(userID, records, unread)
	}

	if c.channel != nil {
		if err := c.channel.Register(ctx, userID); err != nil {
			c.logger.Warn("notification registration failed",
				"user_id", userID, "error", err)
		}
	}

	c.emit(Event{Kind: EventRecordsChanged})
}

// fetchSnapshot performs the one-time cold-start reconciliation fetch,
// normalizing each entry and discarding empties. The result is persisted
// so the fetch never repeats for this identity. Failures yield an empty
// list; the push channel is the recovery mechanism from then on.
func (c *Controller) fetchSnapshot(ctx context.Context, userID string) []model.Notification {
	if c.history == nil {
		return nil
	}

	payloads, err := c.history(ctx, userID)
	if err != nil {
		c.logger.Warn("cold-start notification fetch failed",
			"user_id", userID, "error", err)
		return nil
	}

	list := make([]model.Notification, 0, len(payloads))
	for _, payload := range payloads {
		raw, err := ParseRaw(payload)
		if err != nil {
			continue
		}
		record, ok := Normalize(raw, c.now(), c.newID)
		if !ok {
			continue
		}
		if record.UserID == "" {
			record.UserID = userID
		}
		list = append(list, record)
	}

	if len(list) > 0 {
		if err := c.store.SaveNotifications(ctx, userID, list); err != nil {
			c.logger.Warn("seeding notification cache failed",
				"user_id", userID, "error", err)
		}
	}

	return list
}

// Add runs a raw payload through normalization and admission. Empty
// messages and duplicates are dropped silently. An accepted record is
// prepended (newest first), both the list and the incremented unread
// counter are persisted immediately, and a throttled toast signal is
// emitted. Returns whether the record was added.
func (c *Controller) Add(raw RawNotification) bool {
	c.mu.Lock()
	userID := c.userID
	if userID == "" {
		c.mu.Unlock()
		return false
	}

	now := c.now()
	record, ok := Normalize(raw, now, c.newID)
	if !ok {
		c.mu.Unlock()
		return false
	}

	// A payload scoped to a different identity must never enter this
	// session's state (e.g. a stale delivery from before a user switch).
	if record.UserID != "" && record.UserID != userID {
		c.mu.Unlock()
		c.logger.Debug("dropping notification for inactive identity",
			"record_user", record.UserID, "active_user", userID)
		return false
	}
	if record.UserID == "" {
		record.UserID = userID
	}

	if IsDuplicate(record, c.records, c.dedupWindow) {
		c.mu.Unlock()
		return false
	}

	c.records = append([]model.Notification{record}, c.records...)
	records := make([]model.Notification, len(c.records))
	copy(records, c.records)
	c.unread++
	unread := c.unread

	toastText := "You have a new notification: " + record.Type
	fireToast := now.Sub(c.lastToastAt) > c.toastThrottle || c.lastToastText != toastText
	if fireToast {
		c.lastToastAt = now
		c.lastToastText = toastText
	}
	c.mu.Unlock()

	c.persist(userID, records, unread)

	c.emit(Event{Kind: EventRecordsChanged})
	if fireToast {
		c.emit(Event{Kind: EventToast, ToastText: toastText})
	}
	return true
}

// ResetUnreadCount zeroes the counter and persists it. The record list
// is untouched.
func (c *Controller) ResetUnreadCount(ctx context.Context) {
	c.mu.Lock()
	userID := c.userID
	c.unread = 0
	c.mu.Unlock()

	if userID == "" {
		return
	}
	if err := c.store.SaveUnreadCount(ctx, userID, 0); err != nil {
		c.logger.Warn("persisting unread count failed",
			"user_id", userID, "error", err)
	}
	c.emit(Event{Kind: EventRecordsChanged})
}

// ClearAll empties the list and zeroes the counter for the active
// identity only, removing the durable cache keys as well.
func (c *Controller) ClearAll(ctx context.Context) {
	c.mu.Lock()
	userID := c.userID
	c.records = nil
	c.unread = 0
	c.mu.Unlock()

	if userID == "" {
		return
	}
	if err := c.store.ClearNotifications(ctx, userID); err != nil {
		c.logger.Warn("clearing notification cache failed",
			"user_id", userID, "error", err)
	}
	c.emit(Event{Kind: EventRecordsChanged})
}

// Close detaches from the channel's payload stream and stops the channel.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	if c.channel != nil {
		c.channel.Stop()
	}
}

// handlePayload is the controller's single channel subscription. Payloads
// that do not parse are malformed and dropped silently.
func (c *Controller) handlePayload(data json.RawMessage) {
	raw, err := ParseRaw(data)
	if err != nil {
		c.logger.Debug("dropping malformed notification payload", "error", err)
		return
	}
	c.Add(raw)
}

// persist writes the record list and counter through to the durable
// store. Storage failures are swallowed after logging: persistence is
// best-effort and must never crash the app or interrupt delivery.
func (c *Controller) persist(userID string, records []model.Notification, unread int) {
	ctx := context.Background()
	if err := c.store.SaveNotifications(ctx, userID, records); err != nil {
		c.logger.Warn("persisting notifications failed",
			"user_id", userID, "error", err)
	}
	if err := c.store.SaveUnreadCount(ctx, userID, unread); err != nil {
		c.logger.Warn("persisting unread count failed",
			"user_id", userID, "error", err)
	}
}

// emit sends a UI event without blocking; events are droppable signals,
// not a durable queue.
func (c *Controller) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}
