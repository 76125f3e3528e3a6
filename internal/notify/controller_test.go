package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/avasquez/eventdesk/internal/model"
)

// memStore is an in-memory NotificationStore that records which identities
// were written to, so tests can assert cross-identity isolation.
type memStore struct {
	mu     sync.Mutex
	lists  map[string][]model.Notification
	counts map[string]int
	writes map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		lists:  make(map[string][]model.Notification),
		counts: make(map[string]int),
		writes: make(map[string]int),
	}
}

func (s *memStore) LoadNotifications(_ context.Context, userID string) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.lists[userID]))
	copy(out, s.lists[userID])
	return out, nil
}

func (s *memStore) SaveNotifications(_ context.Context, userID string, list []model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]model.Notification, len(list))
	copy(stored, list)
	s.lists[userID] = stored
	s.writes[userID]++
	return nil
}

func (s *memStore) LoadUnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userID], nil
}

func (s *memStore) SaveUnreadCount(_ context.Context, userID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID] = count
	s.writes[userID]++
	return nil
}

func (s *memStore) ClearNotifications(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, userID)
	delete(s.counts, userID)
	s.writes[userID]++
	return nil
}

func (s *memStore) writeCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[userID]
}

// fakeChannel satisfies RealtimeChannel without any transport.
type fakeChannel struct {
	mu         sync.Mutex
	registered []string
	stopped    bool
	subs       []Subscriber
}

func (f *fakeChannel) Start(context.Context) error { return nil }

func (f *fakeChannel) Register(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, userID)
	return nil
}

func (f *fakeChannel) Subscribe(fn Subscriber) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeChannel) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeChannel) State() ChannelState { return StateConnected }

func (f *fakeChannel) push(payload string) {
	f.mu.Lock()
	subs := append([]Subscriber(nil), f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(json.RawMessage(payload))
	}
}

// testClock is a controllable time source.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type controllerFixture struct {
	controller *Controller
	store      *memStore
	channel    *fakeChannel
	clock      *testClock
}

func newFixture(t *testing.T, history HistoryFetcher) *controllerFixture {
	t.Helper()

	s := newMemStore()
	ch := &fakeChannel{}
	clock := &testClock{t: testNow}

	idSeq := 0
	c := NewController(ControllerConfig{
		Store:         s,
		Channel:       ch,
		History:       history,
		DedupWindow:   5 * time.Second,
		ToastThrottle: 2 * time.Second,
		Logger:        slog.New(slog.DiscardHandler),
		Now:           clock.now,
		NewID: func() string {
			idSeq++
			return fmt.Sprintf("gen-%d", idSeq)
		},
	})
	t.Cleanup(c.Close)

	return &controllerFixture{controller: c, store: s, channel: ch, clock: clock}
}

// drainEvents collects and counts pending events by kind.
func drainEvents(c *Controller) (changed, toasts int) {
	for {
		select {
		case ev := <-c.Events():
			if ev.Kind == EventToast {
				toasts++
			} else {
				changed++
			}
		default:
			return changed, toasts
		}
	}
}

func TestAddPrependsAndIncrementsUnread(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	if !fx.controller.Add(RawNotification{Message: "first"}) {
		t.Fatal("first add rejected")
	}
	fx.clock.advance(10 * time.Second)
	if !fx.controller.Add(RawNotification{Message: "second"}) {
		t.Fatal("second add rejected")
	}

	records := fx.controller.Notifications()
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Message != "second" || records[1].Message != "first" {
		t.Errorf("records not newest-first: %+v", records)
	}
	if got := fx.controller.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount = %d, want 2", got)
	}

	// Persistence happens in the same call, not on a timer.
	stored, _ := fx.store.LoadNotifications(context.Background(), "7")
	if len(stored) != 2 || stored[0].Message != "second" {
		t.Errorf("stored list = %+v, want two records newest-first", stored)
	}
	if count, _ := fx.store.LoadUnreadCount(context.Background(), "7"); count != 2 {
		t.Errorf("stored unread = %d, want 2", count)
	}
}

func TestAddRejectsEmptyMessage(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	if fx.controller.Add(RawNotification{Message: "   "}) {
		t.Error("whitespace-only message accepted")
	}
	if len(fx.controller.Notifications()) != 0 {
		t.Error("list changed after rejected add")
	}
	if fx.controller.UnreadCount() != 0 {
		t.Error("counter changed after rejected add")
	}
}

func TestAddDuplicateSuppression(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	if !fx.controller.Add(RawNotification{NotificationID: "x", Message: "A"}) {
		t.Fatal("initial add rejected")
	}

	// Same id wins regardless of message.
	if fx.controller.Add(RawNotification{NotificationID: "x", Message: "B"}) {
		t.Error("same-id payload accepted")
	}

	// Same message within the window is a duplicate even with a new id.
	fx.clock.advance(4 * time.Second)
	if fx.controller.Add(RawNotification{NotificationID: "y", Message: "A"}) {
		t.Error("same-message payload within window accepted")
	}

	// After the window it is a new logical event.
	fx.clock.advance(2 * time.Second)
	if !fx.controller.Add(RawNotification{NotificationID: "y", Message: "A"}) {
		t.Error("same-message payload after window rejected")
	}

	if got := fx.controller.UnreadCount(); got != 2 {
		t.Errorf("UnreadCount = %d, want 2", got)
	}
}

func TestAddKeywordOverrideStored(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	fx.controller.Add(RawNotification{
		Message: "Your booking has been cancelled",
		Type:    "General",
	})

	records := fx.controller.Notifications()
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Type != model.NotificationTypeCancellation {
		t.Errorf("Type = %q, want %q", records[0].Type, model.NotificationTypeCancellation)
	}
}

func TestAddDropsOtherIdentityPayload(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	if fx.controller.Add(RawNotification{UserID: "8", Message: "not yours"}) {
		t.Error("payload for another identity accepted")
	}
	if len(fx.controller.Notifications()) != 0 {
		t.Error("other-identity payload entered the list")
	}
}

func TestToastThrottle(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")
	drainEvents(fx.controller)

	fx.controller.Add(RawNotification{Message: "update one"})
	fx.clock.advance(500 * time.Millisecond)
	fx.controller.Add(RawNotification{Message: "update two"})

	_, toasts := drainEvents(fx.controller)
	if toasts != 1 {
		t.Errorf("toasts = %d, want 1 (same text within throttle window)", toasts)
	}

	// A different toast text fires immediately.
	fx.clock.advance(100 * time.Millisecond)
	fx.controller.Add(RawNotification{Message: "booking cancelled for you"})
	_, toasts = drainEvents(fx.controller)
	if toasts != 1 {
		t.Errorf("toasts = %d, want 1 (different text bypasses throttle)", toasts)
	}

	// The same text fires again once the window has passed.
	fx.clock.advance(3 * time.Second)
	fx.controller.Add(RawNotification{Message: "update three"})
	_, toasts = drainEvents(fx.controller)
	if toasts != 1 {
		t.Errorf("toasts = %d, want 1 (window elapsed)", toasts)
	}
}

func TestResetUnreadCount(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	fx.controller.Add(RawNotification{Message: "one"})
	fx.controller.ResetUnreadCount(context.Background())

	if got := fx.controller.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount = %d, want 0", got)
	}
	if count, _ := fx.store.LoadUnreadCount(context.Background(), "7"); count != 0 {
		t.Errorf("stored unread = %d, want 0", count)
	}
	if len(fx.controller.Notifications()) != 1 {
		t.Error("reset must not touch the record list")
	}
}

func TestClearAllScopedToActiveIdentity(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	// Seed another identity's cache directly.
	fx.store.SaveNotifications(ctx, "other", []model.Notification{
		{ID: "o1", UserID: "other", Message: "keep me"},
	})
	fx.store.SaveUnreadCount(ctx, "other", 1)

	fx.controller.SetIdentity(ctx, "7")
	fx.controller.Add(RawNotification{Message: "mine"})
	fx.controller.ClearAll(ctx)

	if len(fx.controller.Notifications()) != 0 || fx.controller.UnreadCount() != 0 {
		t.Error("ClearAll left state behind for the active identity")
	}
	otherList, _ := fx.store.LoadNotifications(ctx, "other")
	if len(otherList) != 1 {
		t.Error("ClearAll touched another identity's cache")
	}
}

func TestIdentitySwitchRehydratesAndIsolates(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	fx.controller.SetIdentity(ctx, "A")
	fx.controller.Add(RawNotification{Message: "a1"})
	fx.clock.advance(10 * time.Second)
	fx.controller.Add(RawNotification{Message: "a2"})
	fx.clock.advance(10 * time.Second)
	fx.controller.Add(RawNotification{Message: "a3"})

	writesToA := fx.store.writeCount("A")

	fx.controller.SetIdentity(ctx, "B")

	if got := len(fx.controller.Notifications()); got != 0 {
		t.Errorf("after switch, len(records) = %d, want 0", got)
	}
	if fx.controller.ActiveUserID() != "B" {
		t.Errorf("ActiveUserID = %q, want B", fx.controller.ActiveUserID())
	}

	fx.controller.Add(RawNotification{Message: "b1"})

	if fx.store.writeCount("A") != writesToA {
		t.Error("B-scoped mutation wrote to A's storage keys")
	}
	aList, _ := fx.store.LoadNotifications(ctx, "A")
	if len(aList) != 3 {
		t.Errorf("A's cache was disturbed: %d records, want 3", len(aList))
	}

	// Registration re-issued for the new identity.
	fx.channel.mu.Lock()
	registered := append([]string(nil), fx.channel.registered...)
	fx.channel.mu.Unlock()
	if len(registered) != 2 || registered[1] != "B" {
		t.Errorf("registered identities = %v, want [A B]", registered)
	}
}

func TestLogoutStopsChannelAndClearsMemory(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	fx.controller.SetIdentity(ctx, "7")
	fx.controller.Add(RawNotification{Message: "hello"})
	fx.controller.SetIdentity(ctx, "")

	if len(fx.controller.Notifications()) != 0 || fx.controller.UnreadCount() != 0 {
		t.Error("logout left in-memory state behind")
	}
	if !fx.channel.stopped {
		t.Error("logout must disconnect the push channel")
	}

	// The durable cache for the identity survives logout.
	list, _ := fx.store.LoadNotifications(ctx, "7")
	if len(list) != 1 {
		t.Error("logout must not clear the durable cache")
	}
}

func TestColdStartFetchSkippedWhenCachePopulated(t *testing.T) {
	calls := 0
	history := func(_ context.Context, _ string) ([]json.RawMessage, error) {
		calls++
		return nil, nil
	}

	fx := newFixture(t, history)
	ctx := context.Background()

	fx.store.SaveNotifications(ctx, "7", []model.Notification{
		{ID: "local-1", UserID: "7", Message: "already here"},
	})

	fx.controller.SetIdentity(ctx, "7")

	if calls != 0 {
		t.Errorf("history fetch called %d times, want 0 when cache is populated", calls)
	}
	if got := len(fx.controller.Notifications()); got != 1 {
		t.Errorf("len(records) = %d, want 1 from cache", got)
	}
}

func TestColdStartSeedsFromSnapshot(t *testing.T) {
	history := func(_ context.Context, _ string) ([]json.RawMessage, error) {
		return []json.RawMessage{
			json.RawMessage(`{"NotificationId": "s1", "Message": "Your booking is confirmed"}`),
			json.RawMessage(`{"Message": "   "}`),
			json.RawMessage(`{"notificationId": "s2", "message": "Doors at 7"}`),
		}, nil
	}

	fx := newFixture(t, history)
	ctx := context.Background()
	fx.controller.SetIdentity(ctx, "7")

	records := fx.controller.Notifications()
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (empty entry discarded)", len(records))
	}
	if records[0].ID != "s1" || records[1].ID != "s2" {
		t.Errorf("snapshot order not preserved: %+v", records)
	}
	if records[0].Type != model.NotificationTypeConfirmation {
		t.Errorf("snapshot entries must be normalized, got type %q", records[0].Type)
	}

	// The snapshot is persisted, so the fetch never repeats.
	stored, _ := fx.store.LoadNotifications(ctx, "7")
	if len(stored) != 2 {
		t.Errorf("stored %d records, want 2", len(stored))
	}
}

func TestPushDuringHydrationIsMerged(t *testing.T) {
	var fx *controllerFixture
	history := func(_ context.Context, _ string) ([]json.RawMessage, error) {
		// A push lands while the snapshot request is still in flight.
		fx.controller.Add(RawNotification{
			NotificationID: "live-1",
			Message:        "Seat released",
		})
		return []json.RawMessage{
			json.RawMessage(`{"notificationId": "hist-1", "message": "Doors at 7"}`),
		}, nil
	}

	fx = newFixture(t, history)
	ctx := context.Background()
	fx.controller.SetIdentity(ctx, "7")

	records := fx.controller.Notifications()
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want live push and snapshot entry", len(records))
	}
	if records[0].ID != "live-1" || records[1].ID != "hist-1" {
		t.Errorf("order = [%s %s], want the live push ahead of the snapshot",
			records[0].ID, records[1].ID)
	}
	if got := fx.controller.UnreadCount(); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}

	stored, _ := fx.store.LoadNotifications(ctx, "7")
	if len(stored) != 2 {
		t.Errorf("stored %d records, want the merged list persisted", len(stored))
	}
}

func TestColdStartFetchFailureIsNonFatal(t *testing.T) {
	history := func(_ context.Context, _ string) ([]json.RawMessage, error) {
		return nil, fmt.Errorf("server unreachable")
	}

	fx := newFixture(t, history)
	fx.controller.SetIdentity(context.Background(), "7")

	if len(fx.controller.Notifications()) != 0 {
		t.Error("failed fetch should yield empty state")
	}

	// The session stays usable; pushes still land.
	if !fx.controller.Add(RawNotification{Message: "still works"}) {
		t.Error("add after failed cold-start fetch rejected")
	}
}

func TestChannelPayloadsFlowThroughController(t *testing.T) {
	fx := newFixture(t, nil)
	fx.controller.SetIdentity(context.Background(), "7")

	fx.channel.push(`{"notificationId": "p1", "userId": 7, "message": "pushed"}`)
	fx.channel.push(`not json at all`)
	fx.channel.push(`{"message": ""}`)

	records := fx.controller.Notifications()
	if len(records) != 1 || records[0].ID != "p1" {
		t.Errorf("records = %+v, want only the valid pushed payload", records)
	}
}
