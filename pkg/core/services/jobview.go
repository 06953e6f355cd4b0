package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/core/payload"
)

// JobAggregateAPI is the slice of the marketplace API the aggregate view
// needs
type JobAggregateAPI interface {
	GetEnquiryRaw(ctx context.Context, id int) ([]byte, error)
	VideoInfo(ctx context.Context, id int) (model.VideoInfo, error)
	CheckInHistory(ctx context.Context, enquiryID int) ([]model.CheckIn, error)
}

// JobCache is the slice of the cache the single-job read path needs
type JobCache interface {
	RegisterLoader(key string, loader cache.Loader)
	Get(ctx context.Context, key string) ([]byte, error)
}

// LoadJob reads one job record through the cache under its job-details key,
// registering the backend fetch as the loader on first use. Every single-job
// read goes through here so repeated views within the staleness window cost
// nothing.
func LoadJob(ctx context.Context, store JobCache, api JobAggregateAPI, id int) (model.Enquiry, map[string]any, error) {
	key := cache.JobDetailsKey(id)
	store.RegisterLoader(key, func(ctx context.Context) ([]byte, error) {
		return api.GetEnquiryRaw(ctx, id)
	})

	body, err := store.Get(ctx, key)
	if err != nil {
		return model.Enquiry{}, nil, err
	}

	var record map[string]any
	if err := json.Unmarshal(body, &record); err != nil {
		return model.Enquiry{}, nil, fmt.Errorf("failed to decode job %d: %w", id, err)
	}
	record = payload.Unwrap(record)

	return payload.ParseEnquiry(record), record, nil
}

// JobView is the single view-model the rendering layer consumes: a pure
// derivation over the raw job record, the inspector's bid, the check-in
// history, and the video-call record
type JobView struct {
	Enquiry  model.Enquiry
	UserBid  *model.Bid
	CheckIns []model.CheckIn
	Video    model.VideoInfo

	HasUserBid bool
	IsAccepted bool
	IsNew      bool

	StatusLabel string
	StatusColor string

	// Display strings already fall back to placeholders, so the rendering
	// layer never touches raw fields
	BidAmountDisplay string

	ShowVideoSection     bool
	ShowCheckInSection   bool
	ShowDocumentsSection bool
	ShowBidForm          bool
	ShowAcceptedBanner   bool
}

// BuildJobView derives the view-model with no side effects
func BuildJobView(
	enquiry model.Enquiry,
	raw map[string]any,
	userBid *model.Bid,
	checkIns []model.CheckIn,
	video model.VideoInfo,
	now time.Time,
) JobView {
	hasUserBid := userBid != nil
	isAccepted := hasUserBid && userBid.Status == model.BidAccepted

	return JobView{
		Enquiry:  enquiry,
		UserBid:  userBid,
		CheckIns: checkIns,
		Video:    video,

		HasUserBid: hasUserBid,
		IsAccepted: isAccepted,
		IsNew:      enquiry.IsNew(now),

		StatusLabel: enquiry.Status.Label(),
		StatusColor: enquiry.Status.Color(),

		BidAmountDisplay: displayAmount(raw),

		ShowVideoSection:     isAccepted && video.Scheduled(),
		ShowCheckInSection:   isAccepted,
		ShowDocumentsSection: isAccepted,
		ShowBidForm:          enquiry.Status == model.JobActive && !hasUserBid,
		ShowAcceptedBanner:   isAccepted,
	}
}

// displayAmount renders the resolved bid amount or an explicit placeholder
func displayAmount(raw map[string]any) string {
	if raw == nil {
		return "N/A"
	}
	amount, ok := payload.ResolveAmount(raw)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.2f %s", amount, payload.ResolveCurrency(raw))
}

// FetchJobAggregate pulls everything one job screen needs. The job fetch is
// primary, goes through the job-details cache, and its failure fails the
// call; the video-info and check-in history fetches run concurrently with it
// and are best effort, so a slow or broken optional collaborator never
// blocks the job details.
func FetchJobAggregate(
	ctx context.Context,
	api JobAggregateAPI,
	store JobCache,
	logger *zap.Logger,
	enquiryID int,
	inspectorID string,
	now time.Time,
) (JobView, error) {
	var (
		wg       sync.WaitGroup
		video    model.VideoInfo
		checkIns []model.CheckIn
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := api.VideoInfo(ctx, enquiryID)
		if err != nil {
			logger.Warn("video info fetch failed", zap.Int("enquiry_id", enquiryID), zap.Error(err))
			return
		}
		video = v
	}()
	go func() {
		defer wg.Done()
		h, err := api.CheckInHistory(ctx, enquiryID)
		if err != nil {
			logger.Warn("check-in history fetch failed", zap.Int("enquiry_id", enquiryID), zap.Error(err))
			return
		}
		checkIns = h
	}()

	enquiry, raw, err := LoadJob(ctx, store, api, enquiryID)
	wg.Wait()
	if err != nil {
		return JobView{}, fmt.Errorf("failed to fetch job %d: %w", enquiryID, err)
	}

	userBid := findUserBid(&enquiry, inspectorID)

	return BuildJobView(enquiry, raw, userBid, checkIns, video, now), nil
}

// findUserBid locates this inspector's bid on the enquiry, preferring the
// accepted one
func findUserBid(enquiry *model.Enquiry, inspectorID string) *model.Bid {
	if inspectorID == "" {
		return nil
	}
	if enquiry.AcceptedBid != nil && enquiry.AcceptedBid.InspectorID == inspectorID {
		return enquiry.AcceptedBid
	}
	for i := range enquiry.Shortlisted {
		if enquiry.Shortlisted[i].InspectorID == inspectorID {
			return &enquiry.Shortlisted[i]
		}
	}
	return nil
}
