package model

import "time"

// Event is a bookable event as served by the platform API.
type Event struct {
	// EventID is the server-assigned identifier.
	EventID int `json:"eventId"`

	// Name is the event title shown in listings.
	Name string `json:"eventName"`

	// Description is the full event description text.
	Description string `json:"description"`

	// CategoryID links the event to its category.
	CategoryID int `json:"categoryId"`

	// CategoryName is the denormalized category label, when present.
	CategoryName string `json:"categoryName"`

	// Venue is the event location.
	Venue string `json:"venue"`

	// Date is when the event takes place.
	Date time.Time `json:"eventDate"`

	// TicketPrice is the per-ticket price.
	TicketPrice float64 `json:"ticketPrice"`

	// TotalSeats is the venue capacity.
	TotalSeats int `json:"totalSeats"`

	// AvailableSeats is the number of seats still bookable.
	AvailableSeats int `json:"availableSeats"`

	// OrganiserID is the user managing this event.
	OrganiserID int `json:"organiserId"`

	// ImageURL points at the event's promotional image.
	ImageURL string `json:"imageUrl"`
}

// Category groups events for browsing and filtering.
type Category struct {
	CategoryID int    `json:"categoryID"`
	Name       string `json:"categoryName"`
}

// PlatformStats holds the organiser dashboard aggregates.
type PlatformStats struct {
	TotalEvents   int     `json:"totalEvents"`
	TotalBookings int     `json:"totalBookings"`
	TotalUsers    int     `json:"totalUsers"`
	TotalRevenue  float64 `json:"totalRevenue"`
}
