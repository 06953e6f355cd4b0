package model

import (
	"fmt"
	"strings"
)

// JobStatus is the canonical lifecycle state of an enquiry. Values are only
// ever produced by NormalizeJobStatus; no other code compares raw backend
// status values.
type JobStatus string

const (
	JobActive     JobStatus = "active"
	JobPending    JobStatus = "pending"
	JobAccepted   JobStatus = "accepted"
	JobRejected   JobStatus = "rejected"
	JobCancelled  JobStatus = "cancelled"
	JobCompleted  JobStatus = "completed"
	JobInProgress JobStatus = "in_progress"
)

// BidStatus is the canonical lifecycle state of a bid, produced only by
// NormalizeBidStatus
type BidStatus string

const (
	BidPending    BidStatus = "pending"
	BidAccepted   BidStatus = "accepted"
	BidRejected   BidStatus = "rejected"
	BidCancelled  BidStatus = "cancelled"
	BidCompleted  BidStatus = "completed"
	BidInProgress BidStatus = "in_progress"
)

// NormalizeJobStatus maps any raw backend status representation to a
// canonical JobStatus. The backend returns the same concept as null, a
// numeric code, a numeric string, or an English word; all are accepted.
//
// An absent or unrecognized status always maps to JobActive: a job must
// never be hidden from bidding because of a code we do not know.
func NormalizeJobStatus(raw any) JobStatus {
	switch normalizeStatusWord(raw) {
	case "completed":
		return JobCompleted
	case "rejected":
		return JobRejected
	case "accepted":
		return JobAccepted
	case "cancelled":
		return JobCancelled
	case "pending":
		return JobPending
	case "in_progress":
		return JobInProgress
	default:
		return JobActive
	}
}

// NormalizeBidStatus maps any raw backend bid status to a canonical
// BidStatus. An absent or unrecognized value maps to BidPending.
func NormalizeBidStatus(raw any) BidStatus {
	switch normalizeStatusWord(raw) {
	case "completed":
		return BidCompleted
	case "rejected":
		return BidRejected
	case "accepted":
		return BidAccepted
	case "cancelled":
		return BidCancelled
	case "in_progress":
		return BidInProgress
	default:
		return BidPending
	}
}

// normalizeStatusWord reduces a raw status to one canonical lower-case word,
// or "" when nothing matched. Word matches are tried first, then the numeric
// code table with string/number inputs compared as strings.
func normalizeStatusWord(raw any) string {
	if raw == nil {
		return ""
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = strings.ToLower(strings.TrimSpace(v))
	case float64:
		// JSON numbers decode as float64; codes are small integers
		s = fmt.Sprintf("%.0f", v)
	case int:
		s = fmt.Sprintf("%d", v)
	case int64:
		s = fmt.Sprintf("%d", v)
	default:
		return ""
	}

	switch s {
	case "completed", "finished":
		return "completed"
	case "rejected", "declined":
		return "rejected"
	case "accepted", "approved":
		return "accepted"
	case "cancelled", "canceled":
		return "cancelled"
	case "pending":
		return "pending"
	case "in progress", "inprogress", "in_progress":
		return "in_progress"
	case "active", "open":
		return "active"
	}

	// Numeric code table. Code 5 maps to active, not completed: the product
	// keeps jobs in code 5 open for bidding even though the word form
	// "completed" closes them. Preserve this exactly.
	switch s {
	case "0":
		return "active"
	case "1":
		return "pending"
	case "2":
		return "accepted"
	case "3":
		return "rejected"
	case "4":
		return "cancelled"
	case "5":
		return "active"
	case "6":
		return "in_progress"
	}

	return ""
}

// Label returns the user-facing label for a job status
func (s JobStatus) Label() string {
	switch s {
	case JobActive:
		return "Active"
	case JobPending:
		return "Pending"
	case JobAccepted:
		return "Accepted"
	case JobRejected:
		return "Rejected"
	case JobCancelled:
		return "Cancelled"
	case JobCompleted:
		return "Completed"
	case JobInProgress:
		return "In Progress"
	default:
		return "Active"
	}
}

// Color returns the status badge color used by the rendering layer
func (s JobStatus) Color() string {
	switch s {
	case JobActive:
		return "green"
	case JobPending:
		return "orange"
	case JobAccepted:
		return "blue"
	case JobRejected, JobCancelled:
		return "red"
	case JobCompleted:
		return "grey"
	case JobInProgress:
		return "teal"
	default:
		return "green"
	}
}

// Terminal reports whether a bid status is terminal for the client: once the
// server reports any non-pending status, the bid form is permanently hidden
// for the session
func (s BidStatus) Terminal() bool {
	return s != BidPending
}

// Label returns the user-facing label for a bid status
func (s BidStatus) Label() string {
	switch s {
	case BidPending:
		return "Pending"
	case BidAccepted:
		return "Accepted"
	case BidRejected:
		return "Rejected"
	case BidCancelled:
		return "Cancelled"
	case BidCompleted:
		return "Completed"
	case BidInProgress:
		return "In Progress"
	default:
		return "Pending"
	}
}
