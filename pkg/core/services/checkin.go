package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/clients/marketclient"
	"github.com/rfihub/inspector-cli/pkg/core/model"
	"github.com/rfihub/inspector-cli/pkg/device"
)

var (
	// ErrNotEligible is returned when check-in is attempted without an
	// accepted bid on the job
	ErrNotEligible = errors.New("check-in requires an accepted bid on this job")
	// ErrCheckInBusy is returned when a step is attempted while another
	// step is still pending; calls are rejected, never queued
	ErrCheckInBusy = errors.New("a check-in step is already in progress")
	// ErrLocationDenied is returned when the location permission request is
	// refused. The feature is disabled; nothing else on the screen breaks.
	ErrLocationDenied = errors.New("location permission denied - check-in needs your position")
	// ErrPhotoRequired is the local refusal when submitting without a photo
	ErrPhotoRequired = errors.New("Photo Required")
	// ErrLocationRequired is the local refusal when submitting without a
	// resolved address
	ErrLocationRequired = errors.New("Location Required")
)

// CheckInAPI is the slice of the marketplace API the check-in workflow needs
type CheckInAPI interface {
	SubmitCheckIn(ctx context.Context, req marketclient.CheckInRequest) error
	CheckInHistory(ctx context.Context, enquiryID int) ([]model.CheckIn, error)
}

// Geocoder reverse-geocodes a position; failures are non-fatal
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// CheckInWorkflow drives the strictly ordered check-in protocol:
// eligibility, permission + location, best-effort reverse-geocode, photo,
// optional note, then a guarded multipart submission. At most one step runs
// at a time and at most one submission is ever in flight.
type CheckInWorkflow struct {
	api      CheckInAPI
	location device.LocationProvider
	geocoder Geocoder
	photos   device.PhotoSource
	cache    Invalidator
	logger   *zap.Logger

	enquiryID   int
	masterLogID string

	mu   sync.Mutex
	busy bool

	hasFix    bool
	latitude  float64
	longitude float64
	address   string
	photo     *device.Photo
	note      string

	history []model.CheckIn
}

// NewCheckInWorkflow starts the protocol for one job. Reachable only when
// this inspector's bid on the job is accepted.
func NewCheckInWorkflow(
	api CheckInAPI,
	location device.LocationProvider,
	geocoder Geocoder,
	photos device.PhotoSource,
	invalidator Invalidator,
	logger *zap.Logger,
	enquiry *model.Enquiry,
	userBid *model.Bid,
) (*CheckInWorkflow, error) {
	if userBid == nil || userBid.Status != model.BidAccepted {
		return nil, ErrNotEligible
	}

	return &CheckInWorkflow{
		api:         api,
		location:    location,
		geocoder:    geocoder,
		photos:      photos,
		cache:       invalidator,
		logger:      logger,
		enquiryID:   enquiry.ID,
		masterLogID: enquiry.MasterLogID,
	}, nil
}

// begin claims the single in-flight slot; steps that cannot claim it are
// rejected rather than queued
func (w *CheckInWorkflow) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrCheckInBusy
	}
	w.busy = true
	return nil
}

func (w *CheckInWorkflow) end() {
	w.mu.Lock()
	w.busy = false
	w.mu.Unlock()
}

// AcquireLocation requests permission and fetches the current position,
// then best-effort reverse-geocodes it. On permission denial no partial
// state is retained. A failed geocode keeps the raw coordinates; only the
// address stays empty.
func (w *CheckInWorkflow) AcquireLocation(ctx context.Context) error {
	if err := w.begin(); err != nil {
		return err
	}
	defer w.end()

	pos, err := w.location.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, device.ErrPermissionDenied) {
			w.logger.Info("location permission denied", zap.Int("enquiry_id", w.enquiryID))
			return ErrLocationDenied
		}
		return err
	}

	w.mu.Lock()
	w.hasFix = true
	w.latitude = pos.Latitude
	w.longitude = pos.Longitude
	w.mu.Unlock()

	address, err := w.geocoder.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		w.logger.Warn("reverse geocode failed, keeping raw coordinates",
			zap.Float64("lat", pos.Latitude),
			zap.Float64("lon", pos.Longitude),
			zap.Error(err))
		return nil
	}

	w.mu.Lock()
	w.address = address
	w.mu.Unlock()

	w.logger.Debug("location acquired",
		zap.Float64("lat", pos.Latitude),
		zap.Float64("lon", pos.Longitude),
		zap.String("address", address))
	return nil
}

// AttachPhoto captures or picks the required photo from the explicitly
// chosen source. A location fix must already be held; steps do not skip.
func (w *CheckInWorkflow) AttachPhoto(ctx context.Context, kind device.PhotoSourceKind) error {
	if err := w.begin(); err != nil {
		return err
	}
	defer w.end()

	w.mu.Lock()
	hasFix := w.hasFix
	w.mu.Unlock()
	if !hasFix {
		return ErrLocationRequired
	}

	photo, err := w.photos.Pick(ctx, kind)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.photo = &photo
	w.mu.Unlock()

	w.logger.Debug("photo attached",
		zap.String("source", string(kind)),
		zap.String("name", photo.Name),
		zap.Int("bytes", len(photo.Data)))
	return nil
}

// SetNote records the optional free-text note
func (w *CheckInWorkflow) SetNote(note string) {
	w.mu.Lock()
	w.note = note
	w.mu.Unlock()
}

// CanSubmit checks the hard submission precondition locally: a photo and a
// non-empty address must both be present. The server is never asked to
// validate this.
func (w *CheckInWorkflow) CanSubmit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canSubmitLocked()
}

func (w *CheckInWorkflow) canSubmitLocked() error {
	if w.photo == nil {
		return ErrPhotoRequired
	}
	if w.address == "" {
		return ErrLocationRequired
	}
	return nil
}

// Submit uploads the check-in. On success all check-in-local state is
// cleared, the job's cached detail record is invalidated, and the history
// is refetched; on failure the photo, note, and location are preserved so
// the user can retry without recapturing.
// Retry is always an explicit user action; there is no automatic retry.
func (w *CheckInWorkflow) Submit(ctx context.Context) error {
	if err := w.begin(); err != nil {
		return err
	}
	defer w.end()

	w.mu.Lock()
	if err := w.canSubmitLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	req := marketclient.CheckInRequest{
		EnquiryLogID: w.enquiryID,
		MasterLogID:  w.masterLogID,
		Address:      w.address,
		Latitude:     w.latitude,
		Longitude:    w.longitude,
		Photo:        *w.photo,
		Note:         w.note,
	}
	w.mu.Unlock()

	if err := w.api.SubmitCheckIn(ctx, req); err != nil {
		w.logger.Warn("check-in submission failed",
			zap.Int("enquiry_id", w.enquiryID),
			zap.Error(err))
		return err
	}

	w.mu.Lock()
	w.photo = nil
	w.note = ""
	w.hasFix = false
	w.latitude = 0
	w.longitude = 0
	w.address = ""
	w.mu.Unlock()

	w.logger.Info("check-in recorded", zap.Int("enquiry_id", w.enquiryID))

	// The cached job record embeds check-in state, so it is stale now
	if err := w.cache.Invalidate(ctx, cache.JobDetailsKey(w.enquiryID)); err != nil {
		w.logger.Warn("cache invalidation failed", zap.Error(err))
	}

	// History refetch is best effort; the submission already succeeded
	history, err := w.api.CheckInHistory(ctx, w.enquiryID)
	if err != nil {
		w.logger.Warn("check-in history refetch failed", zap.Error(err))
		return nil
	}

	w.mu.Lock()
	w.history = history
	w.mu.Unlock()
	return nil
}

// History returns the last fetched check-in history
func (w *CheckInWorkflow) History() []model.CheckIn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history
}

// Progress reports which protocol inputs are currently held, for rendering
func (w *CheckInWorkflow) Progress() (hasLocation bool, hasAddress bool, hasPhoto bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasFix, w.address != "", w.photo != nil
}
