package marketclient

import (
	"context"

	"go.uber.org/zap"
)

// GetEnquiryRaw fetches one job and returns the raw body. It is the cache
// loader for job-details keys; normalization happens above the cache so the
// stored body stays exactly what the backend sent.
func (c *Client) GetEnquiryRaw(ctx context.Context, id int) ([]byte, error) {
	data, err := c.postJSON(ctx, "/get-single-enquiry", map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched enquiry", zap.Int("id", id), zap.Int("bytes", len(data)))
	return data, nil
}

// NearbyEnquiries fetches the nearby-jobs collection
func (c *Client) NearbyEnquiries(ctx context.Context) ([]byte, error) {
	return c.postJSON(ctx, "/nearby-enquiries", map[string]any{"token": c.token})
}

// BidEnquiries fetches the bid-jobs collection
func (c *Client) BidEnquiries(ctx context.Context) ([]byte, error) {
	return c.postJSON(ctx, "/bid-enquiries", map[string]any{"token": c.token})
}

// MyBids fetches the my-bids collection
func (c *Client) MyBids(ctx context.Context) ([]byte, error) {
	return c.postJSON(ctx, "/my-bids", map[string]any{"token": c.token})
}
