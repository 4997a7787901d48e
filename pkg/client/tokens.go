package client

import (
	"context"

	"github.com/darmiel/toki/internal/api"
	"github.com/darmiel/toki/internal/core"
)

// ListTokens retrieves all tokens of the server's token library.
func (c *Client) ListTokens(ctx context.Context) ([]core.Token, string, error) {
	var resp []core.Token
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListTokensRoute).
		build(), &resp)
	return resp, correlation, err
}

func (c *Client) GetToken(ctx context.Context, serial string) (*core.Token, string, error) {
	var resp core.Token
	correlation, err := c.get(ctx, c.url().
		setPath(api.GetTokenRoute).
		setPathParam("serial", serial).
		build(), &resp)
	return &resp, correlation, err
}

func (c *Client) ListRealms(ctx context.Context) ([]string, string, error) {
	var resp []string
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListRealmsRoute).
		build(), &resp)
	return resp, correlation, err
}

// AddRealm makes a realm known to the server and returns all realms.
func (c *Client) AddRealm(ctx context.Context, realm string) ([]string, string, error) {
	var resp []string
	correlation, err := c.post(ctx, c.url().
		setPath(api.AddRealmRoute).
		setPathParam("realm", realm).
		build(), nil, &resp)
	return resp, correlation, err
}
