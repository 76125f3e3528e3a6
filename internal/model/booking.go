package model

import "time"

// Booking statuses as reported by the platform API.
const (
	BookingStatusConfirmed = "Confirmed"
	BookingStatusCancelled = "Cancelled"
)

// Booking is a ticket booking belonging to the logged-in user.
type Booking struct {
	// BookingID is the server-assigned identifier.
	BookingID int `json:"bookingId"`

	// EventID links the booking to its event.
	EventID int `json:"eventId"`

	// EventName is the denormalized event title for history listings.
	EventName string `json:"eventName"`

	// UserID is the booking owner.
	UserID int `json:"userId"`

	// Seats lists the booked seat labels.
	Seats []string `json:"selectedSeats"`

	// TicketCount is the number of tickets in the booking.
	TicketCount int `json:"ticketCount"`

	// TotalAmount is the simulated payment total.
	TotalAmount float64 `json:"totalAmount"`

	// Status is one of the BookingStatus* constants.
	Status string `json:"status"`

	// EventDate is when the booked event takes place.
	EventDate time.Time `json:"eventDate"`

	// BookedAt is when the booking was made.
	BookedAt time.Time `json:"bookingDate"`
}
