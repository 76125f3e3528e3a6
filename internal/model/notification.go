package model

import "time"

// Notification type labels. The server-side labels are preserved verbatim
// so cached records stay comparable with server payloads.
const (
	NotificationTypeConfirmation = "Booking Confirmation"
	NotificationTypeCancellation = "Booking Cancellation"
	NotificationTypeGeneral      = "General"
)

// Notification is the canonical, normalized form of a notification record.
// Raw server payloads (push events and snapshot fetches) only become
// Notifications by passing through the notify package's normalization
// boundary; the rest of the application never sees raw payload fields.
type Notification struct {
	// ID is the server-assigned identifier, or a locally generated token
	// for payloads that arrive without one.
	ID string `json:"notificationId"`

	// UserID is the identity the notification belongs to.
	UserID string `json:"userId"`

	// Message is the entity-decoded, trimmed notification text.
	// Records with an empty message are never stored.
	Message string `json:"message"`

	// Type is one of the NotificationType* constants.
	Type string `json:"type"`

	// CreatedAt is the server timestamp, or the client-observed arrival
	// time when the payload carried none.
	CreatedAt time.Time `json:"createdAt"`
}
