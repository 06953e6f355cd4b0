package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/core/payload"
)

// mockAggregateAPI implements JobAggregateAPI for testing
type mockAggregateAPI struct {
	body       []byte
	rawErr     error
	rawCalls   int
	video      model.VideoInfo
	videoErr   error
	history    []model.CheckIn
	historyErr error
}

func (m *mockAggregateAPI) GetEnquiryRaw(ctx context.Context, id int) ([]byte, error) {
	m.rawCalls++
	if m.rawErr != nil {
		return nil, m.rawErr
	}
	return m.body, nil
}

func (m *mockAggregateAPI) VideoInfo(ctx context.Context, id int) (model.VideoInfo, error) {
	if m.videoErr != nil {
		return model.VideoInfo{}, m.videoErr
	}
	return m.video, nil
}

func (m *mockAggregateAPI) CheckInHistory(ctx context.Context, enquiryID int) ([]model.CheckIn, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.history, nil
}

func rawRecord(t *testing.T, body string) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &record))
	return record
}

// stubJobCache is an in-memory JobCache with the same read-through contract
// as the sqlite store: serve the stored body, or load and store on a miss
type stubJobCache struct {
	loaders map[string]cache.Loader
	bodies  map[string][]byte
}

func newStubJobCache() *stubJobCache {
	return &stubJobCache{
		loaders: make(map[string]cache.Loader),
		bodies:  make(map[string][]byte),
	}
}

func (c *stubJobCache) RegisterLoader(key string, loader cache.Loader) {
	c.loaders[key] = loader
}

func (c *stubJobCache) Get(ctx context.Context, key string) ([]byte, error) {
	if body, ok := c.bodies[key]; ok {
		return body, nil
	}
	loader, ok := c.loaders[key]
	if !ok {
		return nil, cache.ErrNoLoader
	}
	body, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	c.bodies[key] = body
	return body, nil
}

func TestBuildJobView_NewBadgeWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	fresh := model.Enquiry{CreatedAt: now.Add(-47 * time.Hour)}
	assert.True(t, BuildJobView(fresh, nil, nil, nil, model.VideoInfo{}, now).IsNew)

	stale := model.Enquiry{CreatedAt: now.Add(-49 * time.Hour)}
	assert.False(t, BuildJobView(stale, nil, nil, nil, model.VideoInfo{}, now).IsNew)
}

func TestBuildJobView_VisibilityForActiveJobWithoutBid(t *testing.T) {
	enquiry := model.Enquiry{ID: 1, Status: model.JobActive}

	view := BuildJobView(enquiry, nil, nil, nil, model.VideoInfo{}, time.Now())

	assert.True(t, view.ShowBidForm)
	assert.False(t, view.ShowAcceptedBanner)
	assert.False(t, view.ShowCheckInSection)
	assert.False(t, view.ShowVideoSection)
	assert.False(t, view.ShowDocumentsSection)
	assert.Equal(t, "Active", view.StatusLabel)
	assert.Equal(t, "green", view.StatusColor)
}

func TestBuildJobView_VisibilityForAcceptedBid(t *testing.T) {
	enquiry := model.Enquiry{ID: 1, Status: model.JobInProgress}
	bid := &model.Bid{Status: model.BidAccepted}
	video := model.VideoInfo{JoineeLink: "https://call.example/j/1"}

	view := BuildJobView(enquiry, nil, bid, nil, video, time.Now())

	assert.True(t, view.HasUserBid)
	assert.True(t, view.IsAccepted)
	assert.False(t, view.ShowBidForm)
	assert.True(t, view.ShowAcceptedBanner)
	assert.True(t, view.ShowCheckInSection)
	assert.True(t, view.ShowDocumentsSection)
	assert.True(t, view.ShowVideoSection)
}

func TestBuildJobView_PendingBidHidesFormWithoutBanner(t *testing.T) {
	enquiry := model.Enquiry{ID: 1, Status: model.JobActive}
	bid := &model.Bid{Status: model.BidPending}

	view := BuildJobView(enquiry, nil, bid, nil, model.VideoInfo{}, time.Now())

	assert.True(t, view.HasUserBid)
	assert.False(t, view.IsAccepted)
	assert.False(t, view.ShowBidForm)
	assert.False(t, view.ShowAcceptedBanner)
}

func TestBuildJobView_AmountDisplay(t *testing.T) {
	t.Run("resolved with nested override", func(t *testing.T) {
		raw := rawRecord(t, `{"accepted_inspectors": [{"amount": 500, "currencies": "EUR"}]}`)
		view := BuildJobView(model.Enquiry{}, raw, nil, nil, model.VideoInfo{}, time.Now())
		assert.Equal(t, "500.00 EUR", view.BidAmountDisplay)
	})

	t.Run("unresolvable renders placeholder", func(t *testing.T) {
		view := BuildJobView(model.Enquiry{}, rawRecord(t, `{}`), nil, nil, model.VideoInfo{}, time.Now())
		assert.Equal(t, "N/A", view.BidAmountDisplay)
	})

	t.Run("nil record renders placeholder", func(t *testing.T) {
		view := BuildJobView(model.Enquiry{}, nil, nil, nil, model.VideoInfo{}, time.Now())
		assert.Equal(t, "N/A", view.BidAmountDisplay)
	})
}

func TestLoadJob_ReadsThroughJobDetailsCache(t *testing.T) {
	api := &mockAggregateAPI{body: []byte(`{"enquiry": {"id": 42, "title": "Tank inspection", "status": "active"}}`)}
	store := newStubJobCache()

	enquiry, raw, err := LoadJob(context.Background(), store, api, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, enquiry.ID)
	assert.Equal(t, "Tank inspection", enquiry.Title)
	assert.Contains(t, raw, "title")
	assert.Contains(t, store.loaders, cache.JobDetailsKey(42))

	// A second read within the staleness window never hits the backend
	_, _, err = LoadJob(context.Background(), store, api, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, api.rawCalls)
}

func TestLoadJob_UndecodableBodyIsAnError(t *testing.T) {
	api := &mockAggregateAPI{body: []byte(`not json`)}

	_, _, err := LoadJob(context.Background(), newStubJobCache(), api, 42)
	assert.Error(t, err)
}

func TestFetchJobAggregate_OptionalFailuresDoNotBlock(t *testing.T) {
	api := &mockAggregateAPI{
		body:       []byte(`{"id": 42, "status": "active"}`),
		videoErr:   errors.New("video service down"),
		historyErr: errors.New("history service down"),
	}

	view, err := FetchJobAggregate(context.Background(), api, newStubJobCache(), zap.NewNop(), 42, "inspector-77", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 42, view.Enquiry.ID)
	assert.False(t, view.Video.Scheduled())
	assert.Empty(t, view.CheckIns)
}

func TestFetchJobAggregate_JobFetchFailureIsPrimary(t *testing.T) {
	api := &mockAggregateAPI{rawErr: errors.New("backend down")}

	_, err := FetchJobAggregate(context.Background(), api, newStubJobCache(), zap.NewNop(), 42, "", time.Now())
	assert.Error(t, err)
}

func TestFetchJobAggregate_FindsUserBid(t *testing.T) {
	api := &mockAggregateAPI{
		body: []byte(`{
			"id": 42,
			"status": "in_progress",
			"accepted_inspectors": [{"inspector_id": "inspector-77"}],
			"shortlisted_inspectors": [{"inspector_id": "other", "status": "pending"}]
		}`),
		video:   model.VideoInfo{JoineeLink: "https://call.example/j/42"},
		history: []model.CheckIn{{ID: 1}},
	}

	view, err := FetchJobAggregate(context.Background(), api, newStubJobCache(), zap.NewNop(), 42, "inspector-77", time.Now())
	require.NoError(t, err)

	require.NotNil(t, view.UserBid)
	assert.True(t, view.IsAccepted)
	assert.True(t, view.ShowCheckInSection)
	assert.True(t, view.ShowVideoSection)
	assert.Len(t, view.CheckIns, 1)
}

func TestFetchJobAggregate_OtherInspectorsBidIsNotMine(t *testing.T) {
	api := &mockAggregateAPI{
		body: []byte(`{
			"id": 42,
			"status": "active",
			"accepted_inspectors": [{"inspector_id": "someone-else"}]
		}`),
	}

	view, err := FetchJobAggregate(context.Background(), api, newStubJobCache(), zap.NewNop(), 42, "inspector-77", time.Now())
	require.NoError(t, err)

	assert.Nil(t, view.UserBid)
	assert.False(t, view.IsAccepted)
}

// Keep the resolver import honest: the display path goes through the same
// candidate lists as the rest of the client
func TestDisplayAmount_UsesResolverFallbacks(t *testing.T) {
	raw := rawRecord(t, `{"bid_amount": "120.5"}`)

	amount, ok := payload.ResolveAmount(raw)
	require.True(t, ok)
	assert.Equal(t, 120.5, amount)
	assert.Equal(t, "120.50 USD", displayAmount(raw))
}
