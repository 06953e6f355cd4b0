package marketclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/core/payload"
	"github.com/rfihub/inspector-cli/pkg/device"
)

// CheckInRequest is the multipart check-in submission
type CheckInRequest struct {
	EnquiryLogID int
	MasterLogID  string
	Address      string
	Latitude     float64
	Longitude    float64
	Photo        device.Photo
	Note         string
}

// SubmitCheckIn uploads an attendance record. The photo travels under two
// field names because the backend reads a different one per platform.
func (c *Client) SubmitCheckIn(ctx context.Context, req CheckInRequest) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		"token":          c.token,
		"enquiry_log_id": strconv.Itoa(req.EnquiryLogID),
		"address":        req.Address,
		"latitude":       strconv.FormatFloat(req.Latitude, 'f', -1, 64),
		"longitude":      strconv.FormatFloat(req.Longitude, 'f', -1, 64),
	}
	if req.MasterLogID != "" {
		fields["master_log_id"] = req.MasterLogID
	}
	if req.Note != "" {
		fields["note"] = req.Note
	}

	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	for _, field := range []string{"image", "imageAndroid"} {
		part, err := form.CreateFormFile(field, req.Photo.Name)
		if err != nil {
			return fmt.Errorf("failed to create photo part %s: %w", field, err)
		}
		if _, err := part.Write(req.Photo.Data); err != nil {
			return fmt.Errorf("failed to write photo part %s: %w", field, err)
		}
	}

	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	c.logger.Info("submitting check-in",
		zap.Int("enquiry_log_id", req.EnquiryLogID),
		zap.String("address", req.Address),
		zap.Int("photo_bytes", len(req.Photo.Data)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/enquiry-check-in", &body)
	if err != nil {
		return fmt.Errorf("failed to build check-in request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("check-in request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read check-in response: %w", err)
	}

	if err := apiError(resp.StatusCode, data); err != nil {
		return err
	}

	c.logger.Info("check-in submitted", zap.Int("enquiry_log_id", req.EnquiryLogID))
	return nil
}

// CheckInHistory fetches the submitted check-ins for an enquiry
func (c *Client) CheckInHistory(ctx context.Context, enquiryID int) ([]model.CheckIn, error) {
	data, err := c.getJSON(ctx, fmt.Sprintf("/check-in-history/%d", enquiryID))
	if err != nil {
		return nil, err
	}

	record, err := decodeMap(data)
	if err != nil {
		return nil, err
	}

	return payload.ParseCheckIns(record), nil
}
