package store

import (
	"context"

	"github.com/avasquez/eventdesk/internal/model"
)

// NotificationStore is the durable per-identity cache for notification
// records and the unread counter. Every mutation accepted by the session
// controller is written through immediately, so a restart never loses a
// notification that was already acknowledged to the user.
//
// Keys are namespaced by user id: two identities never collide. Two
// processes for the same identity race last-write-wins; this is accepted.
type NotificationStore interface {
	// LoadNotifications returns the cached record list for userID, newest
	// first. A missing or corrupt entry yields an empty list, not an error.
	LoadNotifications(ctx context.Context, userID string) ([]model.Notification, error)

	// SaveNotifications overwrites the full cached list for userID.
	SaveNotifications(ctx context.Context, userID string, list []model.Notification) error

	// LoadUnreadCount returns the cached unread counter for userID,
	// 0 when absent or unparsable.
	LoadUnreadCount(ctx context.Context, userID string) (int, error)

	// SaveUnreadCount overwrites the unread counter for userID.
	SaveUnreadCount(ctx context.Context, userID string, count int) error

	// ClearNotifications removes both the record list and the unread
	// counter for userID. Other identities are untouched.
	ClearNotifications(ctx context.Context, userID string) error
}
