package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// UserNotifications retrieves the historical notification snapshot for an
// identity. Payloads are returned raw: field naming and content vary by
// server version, and normalization is the notify package's job.
func (c *Client) UserNotifications(
	ctx context.Context,
	userID string,
) ([]json.RawMessage, error) {
	path := "/api/Notification/User/" + url.PathEscape(userID)

	var payloads []json.RawMessage
	if err := c.Get(ctx, path, &payloads); err != nil {
		return nil, fmt.Errorf("fetching notifications for user %s: %w", userID, err)
	}
	return payloads, nil
}
