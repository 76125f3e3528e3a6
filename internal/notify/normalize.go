package notify

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/avasquez/eventdesk/internal/model"
)

// generatedIDLength is the length of locally generated notification ids.
const generatedIDLength = 9

// entityReplacer decodes exactly the three HTML entities the server is
// known to emit. This is deliberately not a generic HTML decoder.
var entityReplacer = strings.NewReplacer(
	"&#39;", "'",
	"&quot;", `"`,
	"&amp;", "&",
)

// flexID is a payload field that may arrive as a JSON string or number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// RawNotification is the single normalization boundary for inbound
// payloads. Servers emit fields in either camelCase or PascalCase;
// encoding/json matches field names case-insensitively, so one struct
// covers both casings.
type RawNotification struct {
	NotificationID flexID `json:"notificationId"`
	UserID         flexID `json:"userId"`
	Message        string `json:"message"`
	Type           string `json:"type"`
	CreatedAt      string `json:"createdAt"`
}

// ParseRaw decodes a raw payload. A decode failure counts as a malformed
// payload and is reported so the caller can drop it silently.
func ParseRaw(data json.RawMessage) (RawNotification, error) {
	var raw RawNotification
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawNotification{}, err
	}
	return raw, nil
}

// NewID generates a short collision-tolerant token for payloads that
// arrive without a server-assigned id.
func NewID() string {
	id, err := gonanoid.New(generatedIDLength)
	if err != nil {
		// Crypto rand failure; fall back to a timestamp token.
		return "n" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}

// Normalize converts a raw payload into a canonical record. It reports
// false when the payload has no message after trimming, in which case the
// record must not be stored. The keyword-derived type overrides any
// supplied type for the cancellation/confirmation keywords.
func Normalize(raw RawNotification, now time.Time, newID func() string) (model.Notification, bool) {
	message := strings.TrimSpace(raw.Message)
	if message == "" {
		return model.Notification{}, false
	}
	message = entityReplacer.Replace(message)

	id := string(raw.NotificationID)
	if id == "" {
		id = newID()
	}

	createdAt := parseTimestamp(raw.CreatedAt, now)

	return model.Notification{
		ID:        id,
		UserID:    string(raw.UserID),
		Message:   message,
		Type:      classify(message, raw.Type),
		CreatedAt: createdAt,
	}, true
}

// classify derives the notification type from message keywords, falling
// back to the supplied type and then to General.
func classify(message, supplied string) string {
	if strings.Contains(message, "cancelled") {
		return model.NotificationTypeCancellation
	}
	if strings.Contains(message, "confirmed") || strings.Contains(message, "booked") {
		return model.NotificationTypeConfirmation
	}
	if supplied != "" {
		return supplied
	}
	return model.NotificationTypeGeneral
}

// parseTimestamp parses an ISO-8601 payload timestamp, defaulting to the
// client-observed time when the field is absent or unparsable.
func parseTimestamp(value string, now time.Time) time.Time {
	if value == "" {
		return now
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return now
}

// IsDuplicate reports whether candidate is already represented in the
// existing list: either an id match, or the same message text within the
// dedup window. The second clause catches a server push racing an
// optimistic local insert of the same logical event under different
// generated ids.
func IsDuplicate(candidate model.Notification, existing []model.Notification, window time.Duration) bool {
	for _, record := range existing {
		if record.ID == candidate.ID {
			return true
		}
		if record.Message == candidate.Message {
			age := candidate.CreatedAt.Sub(record.CreatedAt)
			if age < 0 {
				age = -age
			}
			if age < window {
				return true
			}
		}
	}
	return false
}
