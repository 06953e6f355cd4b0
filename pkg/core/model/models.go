package model

import (
	"fmt"
	"time"
)

// AmountType is the billing basis an inspector quotes against
type AmountType string

const (
	AmountHourly  AmountType = "hourly"
	AmountDaily   AmountType = "daily"
	AmountMonthly AmountType = "monthly"
	AmountProject AmountType = "project"
)

func (a AmountType) IsValid() bool {
	switch a {
	case AmountHourly, AmountDaily, AmountMonthly, AmountProject:
		return true
	default:
		return false
	}
}

// Currencies the backend accepts for bids
var AllowedCurrencies = []string{"USD", "EUR", "GBP", "INR", "AED", "SAR"}

// IsAllowedCurrency reports whether code is on the fixed currency allow-list
func IsAllowedCurrency(code string) bool {
	for _, c := range AllowedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// Enquiry represents a posted inspection job, already normalized from the
// backend's raw payload shape
type Enquiry struct {
	ID          int
	Title       string
	Category    string
	Commodity   string
	Country     string
	Location    string
	Scope       string
	Documents   []string
	Dates       []string // estimated inspection dates, YYYY-MM-DD
	Status      JobStatus
	CreatedAt   time.Time
	ViewerCount int
	MasterLogID string

	// AcceptedBid is the at-most-one accepted bid on this enquiry, nil when
	// no bid has been accepted
	AcceptedBid *Bid
	Shortlisted []Bid
}

// DisplayCode renders the user-facing job code, e.g. "RFI1042"
func (e *Enquiry) DisplayCode() string {
	return fmt.Sprintf("RFI%d", e.ID)
}

// IsNew reports whether the enquiry was posted within the last 48 hours
func (e *Enquiry) IsNew(now time.Time) bool {
	if e.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(e.CreatedAt) < 48*time.Hour
}

// Bid represents one inspector's offer on one enquiry
type Bid struct {
	ID          int
	EnquiryID   int
	InspectorID string
	Amount      float64
	Currency    string
	AmountType  AmountType
	Dates       []string // YYYY-MM-DD, sorted ascending, deduplicated
	Status      BidStatus
	CreatedAt   time.Time
}

// CheckIn is a geolocated, photographed attendance record submitted by an
// inspector against an accepted bid. Immutable once submitted.
type CheckIn struct {
	ID        int
	EnquiryID int
	Address   string
	Latitude  float64
	Longitude float64
	Note      string
	PhotoURL  string
	CreatedAt time.Time
}

// VideoInfo carries the join link for a scheduled inspection video call.
// An empty JoineeLink means no call is scheduled, which is not an error.
type VideoInfo struct {
	JoineeLink string
}

func (v VideoInfo) Scheduled() bool {
	return v.JoineeLink != ""
}
