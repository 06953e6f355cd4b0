package marketclient

import (
	"context"

	"go.uber.org/zap"
)

// RefreshInspectorData pings the backend's fire-and-forget refresh trigger
// after a mutation. Failures are logged, never surfaced: the trigger is
// advisory and the mutation has already succeeded.
func (c *Client) RefreshInspectorData(ctx context.Context) {
	if _, err := c.postJSON(ctx, "/update-inspector-data", map[string]any{"token": c.token}); err != nil {
		c.logger.Warn("inspector data refresh failed", zap.Error(err))
		return
	}
	c.logger.Debug("inspector data refresh triggered")
}
