package client

import (
	"context"

	"github.com/darmiel/toki/internal/api"
	"github.com/darmiel/toki/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	CorrelationID string
	Event         string
	Handler       string
	Serial        string
	Owner         string
	FailedOnly    bool
}

// ListAudits retrieves the latest audit entries from the server, limited to the specified number.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	params := map[string]string{
		"correlation_id": opts.CorrelationID,
		"event":          opts.Event,
		"handler":        opts.Handler,
		"serial":         opts.Serial,
		"owner":          opts.Owner,
	}
	for key, value := range params {
		if value != "" {
			ub = ub.addQueryParam(key, value)
		}
	}
	if opts.FailedOnly {
		ub = ub.addQueryParam("failed", true)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}
