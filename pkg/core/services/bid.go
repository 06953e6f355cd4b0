package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rfihub/inspector-cli/pkg/cache"
	"github.com/rfihub/inspector-cli/pkg/clients/marketclient"
	"github.com/rfihub/inspector-cli/pkg/core/calendar"
	"github.com/rfihub/inspector-cli/pkg/core/model"
)

// BidFormState is the client-side bid lifecycle for one enquiry
type BidFormState string

const (
	BidStateNoBid      BidFormState = "no_bid"
	BidStateFormOpen   BidFormState = "form_open"
	BidStateSubmitting BidFormState = "submitting"
	BidStateSubmitted  BidFormState = "submitted"
	BidStateAccepted   BidFormState = "accepted"
	BidStateRejected   BidFormState = "rejected"
)

var (
	// ErrBidFormClosed is returned when a form action is attempted in a
	// state where the form is not open
	ErrBidFormClosed = errors.New("bid form is not open")
	// ErrBidNotAllowed is returned when opening the form is illegal for the
	// current job or bid state
	ErrBidNotAllowed = errors.New("bidding is not available for this job")
	// ErrBidInFlight is returned when a submission is already running
	ErrBidInFlight = errors.New("a bid submission is already in progress")
	// ErrBidFormInvalid is returned when submit is attempted with an
	// invalid amount or no dates selected
	ErrBidFormInvalid = errors.New("enter an amount greater than zero and select at least one date")
)

// BidSubmitter is the slice of the marketplace API the bid workflow needs
type BidSubmitter interface {
	SubmitBid(ctx context.Context, req marketclient.BidRequest) error
}

// Invalidator is the slice of the cache the mutation workflows need
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
	ForceRefresh(ctx context.Context, key string) ([]byte, error)
}

// bidSubmission is the submit-time validation contract
type bidSubmission struct {
	Amount     float64  `validate:"required,gt=0"`
	Currency   string   `validate:"required,oneof=USD EUR GBP INR AED SAR"`
	AmountType string   `validate:"required,oneof=hourly daily monthly project"`
	Dates      []string `validate:"min=1,dive,datetime=2006-01-02"`
}

var validate = validator.New()

// BidWorkflow validates and submits one inspector's bid on one enquiry and
// defines which affordances are legal at each state. Bids are immutable
// once submitted; acceptance and rejection are observed from the server,
// never set here.
type BidWorkflow struct {
	api    BidSubmitter
	cache  Invalidator
	logger *zap.Logger

	mu        sync.Mutex
	state     BidFormState
	enquiryID int

	amount     string
	currency   string
	amountType model.AmountType
	dates      *calendar.Session
}

// NewBidWorkflow starts a workflow for one enquiry. The initial state is
// derived from the enquiry's canonical status and any bid this inspector
// already holds on it.
func NewBidWorkflow(api BidSubmitter, invalidator Invalidator, logger *zap.Logger, enquiry *model.Enquiry, existingBid *model.Bid) *BidWorkflow {
	w := &BidWorkflow{
		api:        api,
		cache:      invalidator,
		logger:     logger,
		state:      BidStateNoBid,
		enquiryID:  enquiry.ID,
		currency:   "USD",
		amountType: model.AmountDaily,
		dates:      calendar.NewSession(calendar.NewSelection()),
	}

	if existingBid != nil {
		w.state = BidStateSubmitted
		w.Observe(existingBid.Status)
	}

	return w
}

// State returns the current form state
func (w *BidWorkflow) State() BidFormState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// OpenForm transitions NoBid -> FormOpen. Legal only while the job is open
// for bidding and this inspector holds no bid on it.
func (w *BidWorkflow) OpenForm(enquiry *model.Enquiry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != BidStateNoBid || enquiry.Status != model.JobActive {
		return ErrBidNotAllowed
	}
	w.state = BidStateFormOpen
	w.logger.Debug("bid form opened", zap.Int("enquiry_id", w.enquiryID))
	return nil
}

// SetAmount records the amount exactly as the user typed it; validation
// happens at submit time
func (w *BidWorkflow) SetAmount(amount string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.amount = strings.TrimSpace(amount)
}

// SetCurrency switches the bid currency. Unknown codes are ignored so the
// default can never be cleared.
func (w *BidWorkflow) SetCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !model.IsAllowedCurrency(code) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.currency = code
}

// SetAmountType switches the billing basis. Invalid values are ignored.
func (w *BidWorkflow) SetAmountType(t model.AmountType) {
	if !t.IsValid() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.amountType = t
}

// Dates exposes the calendar staging session for the availability picker.
// The session is not guarded by the workflow mutex: date edits happen on
// the single UI event loop, and Submit reads only the committed selection,
// which Save replaces atomically.
func (w *BidWorkflow) Dates() *calendar.Session {
	return w.dates
}

// IsFormValid reports whether submission would pass local validation:
// the amount parses to a number greater than zero and at least one date is
// selected. Currency and amount type always hold a default, so they can
// never block submission.
func (w *BidWorkflow) IsFormValid() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isFormValidLocked()
}

func (w *BidWorkflow) isFormValidLocked() bool {
	amount, err := strconv.ParseFloat(w.amount, 64)
	if err != nil || amount <= 0 {
		return false
	}
	return w.dates.Committed().Len() > 0
}

// Submit serializes the form and places the bid as a single atomic call.
// On success the related cached collections are invalidated and the two
// list collections are refetched immediately; the backend has no push
// channel, so staleness is eliminated here rather than waited out.
// On failure the form stays open with its data intact so the user can
// retry.
func (w *BidWorkflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	switch w.state {
	case BidStateSubmitting:
		w.mu.Unlock()
		return ErrBidInFlight
	case BidStateFormOpen:
		// proceed
	default:
		w.mu.Unlock()
		return ErrBidFormClosed
	}
	if !w.isFormValidLocked() {
		w.mu.Unlock()
		return ErrBidFormInvalid
	}

	amount, _ := strconv.ParseFloat(w.amount, 64)
	req := marketclient.BidRequest{
		EnquiryID:  w.enquiryID,
		Amount:     amount,
		Dates:      w.dates.Committed().Strings(),
		Currencies: w.currency,
		AmountType: string(w.amountType),
		RequestID:  uuid.New().String(),
	}
	w.state = BidStateSubmitting
	w.mu.Unlock()

	if err := validate.Struct(bidSubmission{
		Amount:     req.Amount,
		Currency:   req.Currencies,
		AmountType: req.AmountType,
		Dates:      req.Dates,
	}); err != nil {
		w.reopen()
		return fmt.Errorf("bid validation failed: %w", err)
	}

	if err := w.api.SubmitBid(ctx, req); err != nil {
		w.reopen()
		w.logger.Warn("bid submission failed",
			zap.Int("enquiry_id", w.enquiryID),
			zap.Error(err))
		return err
	}

	w.mu.Lock()
	w.state = BidStateSubmitted
	w.mu.Unlock()

	w.invalidateCaches(ctx)
	return nil
}

// reopen returns a failed submission to FormOpen without losing form data
func (w *BidWorkflow) reopen() {
	w.mu.Lock()
	w.state = BidStateFormOpen
	w.mu.Unlock()
}

// invalidateCaches drops every collection a new bid makes stale and
// refetches the two job lists immediately. Refetch failures are logged
// only: the invalidation already guarantees the next read is fresh.
func (w *BidWorkflow) invalidateCaches(ctx context.Context) {
	keys := []string{
		cache.KeyMyBids,
		cache.KeyNearbyJobs,
		cache.KeyBidJobs,
		cache.JobDetailsKey(w.enquiryID),
	}
	if err := w.cache.Invalidate(ctx, keys...); err != nil {
		w.logger.Warn("cache invalidation failed", zap.Error(err))
	}

	for _, key := range []string{cache.KeyNearbyJobs, cache.KeyBidJobs} {
		if _, err := w.cache.ForceRefresh(ctx, key); err != nil {
			w.logger.Warn("cache refetch failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Observe folds a server-reported bid status into the client state. Any
// terminal status permanently hides the form for this session; there is no
// resubmission or edit path.
func (w *BidWorkflow) Observe(status model.BidStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == BidStateSubmitting {
		return
	}

	// In-progress and completed bids were necessarily accepted first
	switch status {
	case model.BidAccepted, model.BidInProgress, model.BidCompleted:
		w.state = BidStateAccepted
	case model.BidRejected, model.BidCancelled:
		w.state = BidStateRejected
	}
}

// FormVisible reports whether the bid form affordance should render at all
func (w *BidWorkflow) FormVisible() bool {
	switch w.State() {
	case BidStateNoBid, BidStateFormOpen, BidStateSubmitting:
		return true
	default:
		return false
	}
}
