package marketclient

import (
	"context"

	"go.uber.org/zap"
)

// BidRequest is the wire form of a bid submission
type BidRequest struct {
	EnquiryID  int      `json:"id"`
	Amount     float64  `json:"amount"`
	Dates      []string `json:"dates"`
	Currencies string   `json:"currencies"`
	AmountType string   `json:"amount_type"`
	// RequestID lets the backend deduplicate a retried submission
	RequestID string `json:"request_id,omitempty"`
}

// SubmitBid places a bid on an enquiry as a single atomic call. A failure
// carries the server's message verbatim when one was provided.
func (c *Client) SubmitBid(ctx context.Context, req BidRequest) error {
	c.logger.Info("submitting bid",
		zap.Int("enquiry_id", req.EnquiryID),
		zap.Float64("amount", req.Amount),
		zap.String("currencies", req.Currencies),
		zap.String("amount_type", req.AmountType),
		zap.Int("dates", len(req.Dates)))

	if _, err := c.postJSON(ctx, "/bid-for-enquiry", req); err != nil {
		return err
	}

	c.logger.Info("bid submitted", zap.Int("enquiry_id", req.EnquiryID))
	return nil
}
