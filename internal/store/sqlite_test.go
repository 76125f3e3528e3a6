package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/tests/testutil"
)

func sampleNotifications() []model.Notification {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return []model.Notification{
		{
			ID:        "n-2",
			UserID:    "7",
			Message:   "Your booking for 'Jazz Night' is confirmed",
			Type:      model.NotificationTypeConfirmation,
			CreatedAt: base.Add(time.Minute),
		},
		{
			ID:        "n-1",
			UserID:    "7",
			Message:   "Welcome to the platform",
			Type:      model.NotificationTypeGeneral,
			CreatedAt: base,
		},
	}
}

func TestNotificationsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	want := sampleNotifications()
	if err := s.SaveNotifications(ctx, "7", want); err != nil {
		t.Fatalf("saving notifications: %v", err)
	}

	got, err := s.LoadNotifications(ctx, "7")
	if err != nil {
		t.Fatalf("loading notifications: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d notifications, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("record %d: id = %q, want %q", i, got[i].ID, want[i].ID)
		}
		if got[i].Message != want[i].Message {
			t.Errorf("record %d: message = %q, want %q", i, got[i].Message, want[i].Message)
		}
		if got[i].Type != want[i].Type {
			t.Errorf("record %d: type = %q, want %q", i, got[i].Type, want[i].Type)
		}
		if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("record %d: createdAt = %v, want %v", i, got[i].CreatedAt, want[i].CreatedAt)
		}
	}
}

func TestLoadNotificationsMissingKey(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.LoadNotifications(context.Background(), "no-such-user")
	if err != nil {
		t.Fatalf("loading notifications: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("loaded %d notifications for unknown user, want 0", len(got))
	}
}

func TestLoadNotificationsCorruptValue(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	// Write garbage directly under the list key, then confirm the loader
	// degrades to empty state instead of failing.
	if err := s.PutRaw(ctx, "notifications_7", "{not json"); err != nil {
		t.Fatalf("seeding corrupt entry: %v", err)
	}

	got, err := s.LoadNotifications(ctx, "7")
	if err != nil {
		t.Fatalf("loading notifications: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("loaded %d notifications from corrupt entry, want 0", len(got))
	}
}

func TestSaveOverwritesPreviousList(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveNotifications(ctx, "7", sampleNotifications()); err != nil {
		t.Fatalf("saving initial list: %v", err)
	}
	if err := s.SaveNotifications(ctx, "7", nil); err != nil {
		t.Fatalf("saving empty list: %v", err)
	}

	got, err := s.LoadNotifications(ctx, "7")
	if err != nil {
		t.Fatalf("loading notifications: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("loaded %d notifications after overwrite, want 0", len(got))
	}
}

func TestUnreadCountRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveUnreadCount(ctx, "7", 5); err != nil {
		t.Fatalf("saving unread count: %v", err)
	}

	count, err := s.LoadUnreadCount(ctx, "7")
	if err != nil {
		t.Fatalf("loading unread count: %v", err)
	}
	if count != 5 {
		t.Errorf("unread count = %d, want 5", count)
	}
}

func TestLoadUnreadCountDegenerateValues(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
	}{
		{"missing", ""},
		{"not a number", "banana"},
		{"negative", "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := s.PutRaw(ctx, "unread_count_9", tt.value); err != nil {
					t.Fatalf("seeding entry: %v", err)
				}
			}
			count, err := s.LoadUnreadCount(ctx, "9")
			if err != nil {
				t.Fatalf("loading unread count: %v", err)
			}
			if count != 0 {
				t.Errorf("unread count = %d, want 0", count)
			}
		})
	}
}

func TestClearNotificationsScopedToIdentity(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, userID := range []string{"7", "8"} {
		if err := s.SaveNotifications(ctx, userID, sampleNotifications()); err != nil {
			t.Fatalf("saving notifications for %s: %v", userID, err)
		}
		if err := s.SaveUnreadCount(ctx, userID, 2); err != nil {
			t.Fatalf("saving unread count for %s: %v", userID, err)
		}
	}

	if err := s.ClearNotifications(ctx, "7"); err != nil {
		t.Fatalf("clearing notifications: %v", err)
	}

	cleared, err := s.LoadNotifications(ctx, "7")
	if err != nil {
		t.Fatalf("loading cleared list: %v", err)
	}
	if len(cleared) != 0 {
		t.Errorf("cleared identity still has %d notifications", len(cleared))
	}
	count, err := s.LoadUnreadCount(ctx, "7")
	if err != nil {
		t.Fatalf("loading cleared count: %v", err)
	}
	if count != 0 {
		t.Errorf("cleared identity still has unread count %d", count)
	}

	kept, err := s.LoadNotifications(ctx, "8")
	if err != nil {
		t.Fatalf("loading other identity: %v", err)
	}
	if len(kept) != 2 {
		t.Errorf("other identity has %d notifications after clear, want 2", len(kept))
	}
}
