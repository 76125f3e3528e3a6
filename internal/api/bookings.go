package api

import (
	"context"
	"fmt"

	"github.com/avasquez/eventdesk/internal/model"
)

// CreateBooking books the selected seats for an event. Payment is
// simulated server-side; the returned booking is already confirmed.
func (c *Client) CreateBooking(
	ctx context.Context,
	req CreateBookingRequest,
) (*model.Booking, error) {
	var booking model.Booking
	if err := c.Post(ctx, "/api/Bookings", req, &booking); err != nil {
		return nil, fmt.Errorf("creating booking: %w", err)
	}
	return &booking, nil
}

// UpcomingBookings retrieves the user's bookings for future events.
func (c *Client) UpcomingBookings(ctx context.Context, userID int) ([]model.Booking, error) {
	path := fmt.Sprintf("/api/BookingHistory/Upcoming/%d", userID)
	var bookings []model.Booking
	if err := c.Get(ctx, path, &bookings); err != nil {
		return nil, fmt.Errorf("fetching upcoming bookings: %w", err)
	}
	return bookings, nil
}

// PastBookings retrieves the user's bookings for events that have happened.
func (c *Client) PastBookings(ctx context.Context, userID int) ([]model.Booking, error) {
	path := fmt.Sprintf("/api/BookingHistory/Past/%d", userID)
	var bookings []model.Booking
	if err := c.Get(ctx, path, &bookings); err != nil {
		return nil, fmt.Errorf("fetching past bookings: %w", err)
	}
	return bookings, nil
}

// CancelBooking cancels an upcoming booking.
func (c *Client) CancelBooking(ctx context.Context, bookingID int) error {
	path := fmt.Sprintf("/api/BookingHistory/Cancel/%d", bookingID)
	if err := c.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("cancelling booking %d: %w", bookingID, err)
	}
	return nil
}
