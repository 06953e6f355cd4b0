package marketclient

import (
	"context"
	"fmt"

	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/core/payload"
)

// VideoInfo fetches the video-call join link for an enquiry. An absent link
// means no call is scheduled, which is a normal state, not an error.
func (c *Client) VideoInfo(ctx context.Context, enquiryID int) (model.VideoInfo, error) {
	data, err := c.getJSON(ctx, fmt.Sprintf("/agora-video/enquiry/%d", enquiryID))
	if err != nil {
		return model.VideoInfo{}, err
	}

	record, err := decodeMap(data)
	if err != nil {
		return model.VideoInfo{}, err
	}

	link := payload.ResolveString(record,
		"data.participants.joinee_link",
		"participants.joinee_link",
		"joinee_link")

	return model.VideoInfo{JoineeLink: link}, nil
}
