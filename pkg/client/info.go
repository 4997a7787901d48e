package client

import (
	"context"

	"github.com/darmiel/toki/internal/actions"
	"github.com/darmiel/toki/internal/api"
	"github.com/darmiel/toki/internal/buildinfo"
)

func (c *Client) Info(ctx context.Context) (*buildinfo.Info, string, error) {
	var info buildinfo.Info
	correlation, err := c.get(ctx, c.url().
		setPath(api.AboutRoute).
		build(), &info)
	return &info, correlation, err
}

// ListActions retrieves the action catalog of the server.
func (c *Client) ListActions(ctx context.Context) (actions.Catalog, string, error) {
	var catalog actions.Catalog
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListActionsRoute).
		build(), &catalog)
	return catalog, correlation, err
}
