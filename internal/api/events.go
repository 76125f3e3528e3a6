package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/avasquez/eventdesk/internal/model"
)

// Events retrieves all published events.
func (c *Client) Events(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.Get(ctx, "/api/Events", &events); err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	return events, nil
}

// Event retrieves a single event by id.
func (c *Client) Event(ctx context.Context, eventID int) (*model.Event, error) {
	var event model.Event
	if err := c.Get(ctx, fmt.Sprintf("/api/Events/%d", eventID), &event); err != nil {
		return nil, fmt.Errorf("fetching event %d: %w", eventID, err)
	}
	return &event, nil
}

// SearchEventsByName retrieves events whose name matches the query.
func (c *Client) SearchEventsByName(ctx context.Context, name string) ([]model.Event, error) {
	path := "/api/Events/eventName?name=" + url.QueryEscape(name)
	var events []model.Event
	if err := c.Get(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("searching events by name %q: %w", name, err)
	}
	return events, nil
}

// CreateEvent publishes a new event (organiser only).
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) error {
	if err := c.Post(ctx, "/api/Events", req, nil); err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// UpdateEvent modifies an existing event (organiser only).
func (c *Client) UpdateEvent(ctx context.Context, req CreateEventRequest) error {
	if err := c.Put(ctx, "/api/Events/update", req, nil); err != nil {
		return fmt.Errorf("updating event %d: %w", req.EventID, err)
	}
	return nil
}

// DeleteEvent removes an event (organiser only).
func (c *Client) DeleteEvent(ctx context.Context, eventID int) error {
	if err := c.Delete(ctx, fmt.Sprintf("/api/Events/%d", eventID)); err != nil {
		return fmt.Errorf("deleting event %d: %w", eventID, err)
	}
	return nil
}

// PlatformStats retrieves the organiser dashboard aggregates. The server
// exposes each number as its own endpoint; failures on any individual
// number leave that field at zero rather than failing the whole call.
func (c *Client) PlatformStats(ctx context.Context) (*model.PlatformStats, error) {
	stats := &model.PlatformStats{}

	endpoints := []struct {
		path   string
		target interface{}
	}{
		{"/api/Events/Total%20Number%20Of%20Events", &stats.TotalEvents},
		{"/api/Events/Total%20Number%20Of%20Bookings", &stats.TotalBookings},
		{"/api/Events/Total%20Number%20Of%20Users", &stats.TotalUsers},
		{"/api/Events/Total%20Revenue%20Generated", &stats.TotalRevenue},
	}

	var firstErr error
	for _, e := range endpoints {
		if err := c.Get(ctx, e.path, e.target); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return stats, fmt.Errorf("fetching platform stats: %w", firstErr)
	}
	return stats, nil
}

// Categories retrieves all event categories.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.Get(ctx, "/api/Categories", &categories); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return categories, nil
}

// CreateCategory adds a new event category (organiser only).
func (c *Client) CreateCategory(ctx context.Context, name string) error {
	if err := c.Post(ctx, "/api/Categories", CreateCategoryRequest{Name: name}, nil); err != nil {
		return fmt.Errorf("creating category %q: %w", name, err)
	}
	return nil
}

// DeleteCategory removes an event category (organiser only).
func (c *Client) DeleteCategory(ctx context.Context, categoryID int) error {
	if err := c.Delete(ctx, fmt.Sprintf("/api/Categories/%d", categoryID)); err != nil {
		return fmt.Errorf("deleting category %d: %w", categoryID, err)
	}
	return nil
}
