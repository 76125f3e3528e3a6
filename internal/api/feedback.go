package api

import (
	"context"
	"fmt"

	"github.com/avasquez/eventdesk/internal/model"
)

// SubmitFeedback posts a rating and comment for an event the user attended.
func (c *Client) SubmitFeedback(ctx context.Context, req SubmitFeedbackRequest) error {
	if err := c.Post(ctx, "/api/Feedbacks/SubmitFeedback", req, nil); err != nil {
		return fmt.Errorf("submitting feedback: %w", err)
	}
	return nil
}

// FeedbackSummary retrieves the aggregated ratings for a single event.
func (c *Client) FeedbackSummary(ctx context.Context, eventID int) (*model.FeedbackSummary, error) {
	path := fmt.Sprintf("/api/Feedbacks/GetFeedbackSummary/%d", eventID)
	var summary model.FeedbackSummary
	if err := c.Get(ctx, path, &summary); err != nil {
		return nil, fmt.Errorf("fetching feedback summary for event %d: %w", eventID, err)
	}
	return &summary, nil
}

// BookedEvents retrieves the events the user has attended and may rate.
func (c *Client) BookedEvents(ctx context.Context, userID int) ([]model.Event, error) {
	path := fmt.Sprintf("/api/Feedbacks/GetBookedEventsByUserId/%d", userID)
	var events []model.Event
	if err := c.Get(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("fetching booked events for user %d: %w", userID, err)
	}
	return events, nil
}

// TopRatedEvents retrieves the highest-rated events across the platform.
func (c *Client) TopRatedEvents(ctx context.Context) ([]model.FeedbackSummary, error) {
	var summaries []model.FeedbackSummary
	if err := c.Get(ctx, "/api/Feedbacks/TopRatedEvents", &summaries); err != nil {
		return nil, fmt.Errorf("fetching top rated events: %w", err)
	}
	return summaries, nil
}
