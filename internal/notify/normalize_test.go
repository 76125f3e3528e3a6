package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/avasquez/eventdesk/internal/model"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func staticID() string { return "generated-1" }

func TestNormalizeRejectsEmptyMessage(t *testing.T) {
	cases := []string{
		`{}`,
		`{"message": ""}`,
		`{"message": "   "}`,
		`{"Message": "\t  \n"}`,
	}

	for _, payload := range cases {
		raw, err := ParseRaw(json.RawMessage(payload))
		if err != nil {
			t.Fatalf("parsing %s: %v", payload, err)
		}
		if _, ok := Normalize(raw, testNow, staticID); ok {
			t.Errorf("payload %s: expected rejection, got record", payload)
		}
	}
}

func TestNormalizeAcceptsEitherFieldCasing(t *testing.T) {
	camel, err := ParseRaw(json.RawMessage(
		`{"notificationId": "a1", "userId": "7", "message": "hello"}`,
	))
	if err != nil {
		t.Fatalf("parsing camelCase payload: %v", err)
	}
	pascal, err := ParseRaw(json.RawMessage(
		`{"NotificationId": "a1", "UserId": "7", "Message": "hello"}`,
	))
	if err != nil {
		t.Fatalf("parsing PascalCase payload: %v", err)
	}

	recordCamel, ok := Normalize(camel, testNow, staticID)
	if !ok {
		t.Fatal("camelCase payload rejected")
	}
	recordPascal, ok := Normalize(pascal, testNow, staticID)
	if !ok {
		t.Fatal("PascalCase payload rejected")
	}

	if recordCamel != recordPascal {
		t.Errorf("casing mismatch: %+v vs %+v", recordCamel, recordPascal)
	}
	if recordCamel.ID != "a1" || recordCamel.UserID != "7" {
		t.Errorf("unexpected record: %+v", recordCamel)
	}
}

func TestNormalizeNumericUserID(t *testing.T) {
	raw, err := ParseRaw(json.RawMessage(`{"userId": 42, "message": "hi"}`))
	if err != nil {
		t.Fatalf("parsing payload: %v", err)
	}
	record, ok := Normalize(raw, testNow, staticID)
	if !ok {
		t.Fatal("payload rejected")
	}
	if record.UserID != "42" {
		t.Errorf("UserID = %q, want %q", record.UserID, "42")
	}
}

func TestNormalizeDecodesExactlyThreeEntities(t *testing.T) {
	raw := RawNotification{
		Message: "It&#39;s a &quot;sold out&quot; show &amp; more &lt;b&gt;",
	}
	record, ok := Normalize(raw, testNow, staticID)
	if !ok {
		t.Fatal("payload rejected")
	}
	want := `It's a "sold out" show & more &lt;b&gt;`
	if record.Message != want {
		t.Errorf("Message = %q, want %q", record.Message, want)
	}
}

func TestNormalizeKeywordOverride(t *testing.T) {
	cases := []struct {
		message  string
		supplied string
		want     string
	}{
		{"Your booking has been cancelled", "General", model.NotificationTypeCancellation},
		{"Your booking is confirmed", "General", model.NotificationTypeConfirmation},
		{"You booked 2 tickets", "", model.NotificationTypeConfirmation},
		{"Venue changed to Hall B", "Venue Update", "Venue Update"},
		{"Reminder: doors at 7", "", model.NotificationTypeGeneral},
	}

	for _, tc := range cases {
		record, ok := Normalize(RawNotification{
			Message: tc.message,
			Type:    tc.supplied,
		}, testNow, staticID)
		if !ok {
			t.Fatalf("message %q rejected", tc.message)
		}
		if record.Type != tc.want {
			t.Errorf("message %q: Type = %q, want %q", tc.message, record.Type, tc.want)
		}
	}
}

func TestNormalizeAssignsGeneratedID(t *testing.T) {
	record, ok := Normalize(RawNotification{Message: "hi"}, testNow, staticID)
	if !ok {
		t.Fatal("payload rejected")
	}
	if record.ID != "generated-1" {
		t.Errorf("ID = %q, want generated id", record.ID)
	}

	record, ok = Normalize(RawNotification{
		NotificationID: "srv-9", Message: "hi",
	}, testNow, staticID)
	if !ok {
		t.Fatal("payload rejected")
	}
	if record.ID != "srv-9" {
		t.Errorf("ID = %q, want server id", record.ID)
	}
}

func TestNormalizeTimestampDefaultsToNow(t *testing.T) {
	record, _ := Normalize(RawNotification{Message: "hi"}, testNow, staticID)
	if !record.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", record.CreatedAt, testNow)
	}

	record, _ = Normalize(RawNotification{
		Message:   "hi",
		CreatedAt: "2026-03-01T08:30:00Z",
	}, testNow, staticID)
	want := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	if !record.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", record.CreatedAt, want)
	}

	record, _ = Normalize(RawNotification{
		Message:   "hi",
		CreatedAt: "not a timestamp",
	}, testNow, staticID)
	if !record.CreatedAt.Equal(testNow) {
		t.Errorf("unparsable CreatedAt = %v, want now", record.CreatedAt)
	}
}

func TestIsDuplicateByID(t *testing.T) {
	existing := []model.Notification{
		{ID: "x", Message: "A", CreatedAt: testNow},
	}
	candidate := model.Notification{ID: "x", Message: "B", CreatedAt: testNow.Add(time.Hour)}

	if !IsDuplicate(candidate, existing, 5*time.Second) {
		t.Error("same id should be a duplicate regardless of message")
	}
}

func TestIsDuplicateByMessageWithinWindow(t *testing.T) {
	existing := []model.Notification{
		{ID: "x", Message: "A", CreatedAt: testNow},
	}

	within := model.Notification{ID: "y", Message: "A", CreatedAt: testNow.Add(4 * time.Second)}
	if !IsDuplicate(within, existing, 5*time.Second) {
		t.Error("same message within the window should be a duplicate")
	}

	after := model.Notification{ID: "y", Message: "A", CreatedAt: testNow.Add(6 * time.Second)}
	if IsDuplicate(after, existing, 5*time.Second) {
		t.Error("same message after the window should be accepted")
	}

	different := model.Notification{ID: "y", Message: "B", CreatedAt: testNow.Add(time.Second)}
	if IsDuplicate(different, existing, 5*time.Second) {
		t.Error("different message should never be a duplicate")
	}
}

func TestNewIDLength(t *testing.T) {
	id := NewID()
	if len(id) != generatedIDLength {
		t.Errorf("NewID length = %d, want %d", len(id), generatedIDLength)
	}
	if id == NewID() {
		t.Error("consecutive ids should differ")
	}
}
