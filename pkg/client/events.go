package client

import (
	"context"

	"github.com/darmiel/toki/internal/api"
)

// TriggerEvent sends an event to the server and returns what its handlers did.
// If a handler fails, the returned error is an APIError and the response is nil.
func (c *Client) TriggerEvent(ctx context.Context, event string, payload api.EventPayload) (*api.EventResponse, string, error) {
	var resp api.EventResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.TriggerEventRoute).
		setPathParam("event", event).
		build(), payload, &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp, correlation, nil
}
