package orgmanage

import (
	"testing"
	"time"
)

func TestValidateDate(t *testing.T) {
	if err := validateDate("2026-10-31 19:00"); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	for _, bad := range []string{"", "31/10/2026", "2026-10-31", "soon"} {
		if err := validateDate(bad); err == nil {
			t.Errorf("validateDate(%q) accepted", bad)
		}
	}
}

func TestValidatePrice(t *testing.T) {
	for _, ok := range []string{"0", "49.99", " 120 "} {
		if err := validatePrice(ok); err != nil {
			t.Errorf("validatePrice(%q) rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "-5", "free"} {
		if err := validatePrice(bad); err == nil {
			t.Errorf("validatePrice(%q) accepted", bad)
		}
	}
}

func TestValidateSeatCount(t *testing.T) {
	if err := validateSeatCount("150"); err != nil {
		t.Errorf("valid seat count rejected: %v", err)
	}
	for _, bad := range []string{"", "0", "-3", "many"} {
		if err := validateSeatCount(bad); err == nil {
			t.Errorf("validateSeatCount(%q) accepted", bad)
		}
	}
}

func TestEventBindingsRequest(t *testing.T) {
	b := &eventBindings{
		name:        "  Jazz Night ",
		description: "An evening of live jazz",
		categoryID:  3,
		venue:       "City Hall",
		date:        "2026-10-31 19:00",
		price:       "49.99",
		seats:       "150",
		imageURL:    "https://img.example/jazz.png",
	}

	req := b.request(12)

	if req.EventID != 12 {
		t.Errorf("EventID = %d, want 12", req.EventID)
	}
	if req.Name != "Jazz Night" {
		t.Errorf("Name = %q, want trimmed title", req.Name)
	}
	if req.CategoryID != 3 || req.Venue != "City Hall" {
		t.Errorf("category/venue not carried: %+v", req)
	}
	if req.TicketPrice != 49.99 || req.TotalSeats != 150 {
		t.Errorf("price/seats = %v/%d, want 49.99/150", req.TicketPrice, req.TotalSeats)
	}

	parsed, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		t.Fatalf("Date %q is not RFC 3339: %v", req.Date, err)
	}
	if parsed.Hour() != 19 || parsed.Day() != 31 {
		t.Errorf("Date = %v, want Oct 31 19:00", parsed)
	}
}

func TestNewEventRequestOmitsID(t *testing.T) {
	b := &eventBindings{
		name:  "Pop Up Gig",
		venue: "The Yard",
		date:  "2026-11-02 20:00",
		price: "15",
		seats: "40",
	}
	if req := b.request(0); req.EventID != 0 {
		t.Errorf("EventID = %d, want 0 for a new event", req.EventID)
	}
}
