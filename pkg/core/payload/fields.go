package payload

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rfihub/inspector-cli/pkg/core/model"
)

// Candidate-key lists per logical field. The order is the resolution order;
// earlier keys win. These enumerate every shape the backend has been seen to
// return for each concept.
var (
	scopeKeys = []string{
		"scope_of_work",
		"scope",
		"inspection_scope",
		"work_description",
		"note",
	}

	categoryKeys = []string{
		"category.name",
		"category_name",
		"category",
	}

	commodityKeys = []string{
		"commodity.name",
		"commodity_name",
		"commodity",
	}

	// The nested accepted-inspector amount overrides every flat field
	amountKeys = []string{
		"accepted_inspectors.0.amount",
		"bid_amount",
		"amount",
		"inspector_amount",
		"bids.0.amount",
		"price",
	}

	currencyKeys = []string{
		"accepted_inspectors.0.currencies",
		"currencies",
		"currency",
		"bid_currency",
	}

	viewerCountKeys = []string{
		"viewer_count",
		"viewers",
		"view_count",
		"views",
		"total_views",
		"seen_by",
		"viewed",
		"watch_count",
	}

	masterLogIDKeys = []string{
		"master_log_id",
		"master_log.id",
		"accepted_inspectors.0.master_log_id",
		"enquiry_log.master_log_id",
		"logs.0.master_log_id",
		"masterLogId",
	}

	dateKeys = []string{
		"estimated_inspection_dates",
		"inspection_dates",
		"inspection_date",
		"dates",
	}
)

var dateDelimiter = regexp.MustCompile(`[,;|]`)

// Unwrap strips the backend's response envelope. Single-enquiry responses
// arrive as {"enquiry": {...}}, {"data": {...}}, or bare, inconsistently.
func Unwrap(record map[string]any) map[string]any {
	for _, key := range []string{"enquiry", "data"} {
		if inner, ok := record[key].(map[string]any); ok {
			return inner
		}
	}
	return record
}

// ParseEnquiry normalizes one raw enquiry record into the canonical model.
// Unresolvable fields come out zero-valued; callers render "N/A" rather
// than failing.
func ParseEnquiry(raw map[string]any) model.Enquiry {
	record := Unwrap(raw)

	id, _ := ResolveInt(record, "id", "enquiry_id")
	viewers, _ := ResolveInt(record, viewerCountKeys...)

	e := model.Enquiry{
		ID:          id,
		Title:       ResolveString(record, "title", "name"),
		Category:    ResolveString(record, categoryKeys...),
		Commodity:   ResolveString(record, commodityKeys...),
		Country:     ResolveString(record, "country.name", "country_name", "country"),
		Location:    ResolveString(record, "vendor_location", "location", "vendor.address"),
		Scope:       ResolveString(record, scopeKeys...),
		Documents:   ResolveStringList(record, "required_documents", "documents"),
		Dates:       ResolveDates(record, dateKeys...),
		Status:      model.NormalizeJobStatus(Resolve(record, "status")),
		CreatedAt:   ResolveTime(record, "created_at", "createdAt", "posted_at"),
		ViewerCount: viewers,
		MasterLogID: ResolveString(record, masterLogIDKeys...),
	}

	e.AcceptedBid, e.Shortlisted = parseBids(record, e.ID)

	return e
}

// ResolveAmount reads the bid amount for an enquiry record, honoring the
// nested accepted-inspector override
func ResolveAmount(record map[string]any) (float64, bool) {
	return ResolveFloat(Unwrap(record), amountKeys...)
}

// ResolveCurrency reads the bid currency for an enquiry record, defaulting
// to USD when nothing resolves
func ResolveCurrency(record map[string]any) string {
	if c := ResolveString(Unwrap(record), currencyKeys...); c != "" {
		return strings.ToUpper(c)
	}
	return "USD"
}

// ResolveMasterLogID reads the master log id defensively across every
// payload location the backend has used for it
func ResolveMasterLogID(record map[string]any) string {
	return ResolveString(Unwrap(record), masterLogIDKeys...)
}

// ResolveDates resolves the inspection dates field, which arrives as a JSON
// array, a JSON-encoded string, or a comma/semicolon/pipe-delimited string.
// Parse order: native array, then JSON-decode the string, then split on
// delimiters, then treat the whole raw value as a single date.
func ResolveDates(record map[string]any, keys ...string) []string {
	v := Resolve(record, keys...)
	if v == nil {
		return nil
	}

	switch dates := v.(type) {
	case []any:
		return cleanDates(anySliceToStrings(dates))
	case string:
		var decoded []string
		if err := json.Unmarshal([]byte(dates), &decoded); err == nil {
			return cleanDates(decoded)
		}
		if dateDelimiter.MatchString(dates) {
			return cleanDates(dateDelimiter.Split(dates, -1))
		}
		return cleanDates([]string{dates})
	default:
		return nil
	}
}

// ResolveStringList resolves a field that should be a list of strings but
// may arrive as an array or a delimited string
func ResolveStringList(record map[string]any, keys ...string) []string {
	v := Resolve(record, keys...)
	if v == nil {
		return nil
	}
	switch list := v.(type) {
	case []any:
		return cleanDates(anySliceToStrings(list))
	case string:
		if dateDelimiter.MatchString(list) {
			return cleanDates(dateDelimiter.Split(list, -1))
		}
		return []string{strings.TrimSpace(list)}
	default:
		return nil
	}
}

// Timestamp layouts the backend has been seen to emit
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ResolveTime parses the first resolvable timestamp candidate. Returns the
// zero time when nothing parses.
func ResolveTime(record map[string]any, keys ...string) time.Time {
	s := ResolveString(record, keys...)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseBids extracts the accepted bid (at most one) and any shortlisted
// bids from an enquiry record. More than one accepted signal is a data
// anomaly; the extras are demoted to the shortlist rather than crashing.
func parseBids(record map[string]any, enquiryID int) (*model.Bid, []model.Bid) {
	var accepted *model.Bid
	var shortlisted []model.Bid

	appendBid := func(raw map[string]any, forceAccepted bool) {
		bid := parseBid(raw, enquiryID)
		if forceAccepted {
			bid.Status = model.BidAccepted
		}
		if bid.Status == model.BidAccepted && accepted == nil {
			accepted = &bid
			return
		}
		shortlisted = append(shortlisted, bid)
	}

	if list, ok := record["accepted_inspectors"].([]any); ok {
		for _, item := range list {
			if raw, ok := item.(map[string]any); ok {
				appendBid(raw, true)
			}
		}
	}
	if list, ok := record["shortlisted_inspectors"].([]any); ok {
		for _, item := range list {
			if raw, ok := item.(map[string]any); ok {
				appendBid(raw, false)
			}
		}
	}

	return accepted, shortlisted
}

// parseBid normalizes one raw bid record
func parseBid(raw map[string]any, enquiryID int) model.Bid {
	id, _ := ResolveInt(raw, "id", "bid_id")
	amount, _ := ResolveFloat(raw, "amount", "bid_amount", "price")

	amountType := model.AmountType(strings.ToLower(ResolveString(raw, "amount_type", "amountType")))
	if !amountType.IsValid() {
		amountType = model.AmountDaily
	}

	currency := strings.ToUpper(ResolveString(raw, "currencies", "currency"))
	if currency == "" {
		currency = "USD"
	}

	return model.Bid{
		ID:          id,
		EnquiryID:   enquiryID,
		InspectorID: ResolveString(raw, "inspector_id", "user_id", "inspector.id"),
		Amount:      amount,
		Currency:    currency,
		AmountType:  amountType,
		Dates:       ResolveDates(raw, "dates", "inspection_dates"),
		Status:      model.NormalizeBidStatus(Resolve(raw, "status", "bid_status")),
		CreatedAt:   ResolveTime(raw, "created_at", "createdAt"),
	}
}

// ParseCheckIns normalizes a raw check-in history payload
func ParseCheckIns(raw map[string]any) []model.CheckIn {
	record := Unwrap(raw)

	list, ok := record["check_ins"].([]any)
	if !ok {
		if list, ok = record["history"].([]any); !ok {
			return nil
		}
	}

	checkIns := make([]model.CheckIn, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := ResolveInt(entry, "id")
		enquiryID, _ := ResolveInt(entry, "enquiry_id", "enquiry_log_id")
		lat, _ := ResolveFloat(entry, "latitude", "lat")
		lon, _ := ResolveFloat(entry, "longitude", "lng", "lon")
		checkIns = append(checkIns, model.CheckIn{
			ID:        id,
			EnquiryID: enquiryID,
			Address:   ResolveString(entry, "address", "location"),
			Latitude:  lat,
			Longitude: lon,
			Note:      ResolveString(entry, "note", "comment"),
			PhotoURL:  ResolveString(entry, "image", "photo", "image_url"),
			CreatedAt: ResolveTime(entry, "created_at", "createdAt"),
		})
	}
	return checkIns
}

// cleanDates trims entries and drops empties, preserving order
func cleanDates(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func anySliceToStrings(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		out = append(out, asString(v))
	}
	return out
}
