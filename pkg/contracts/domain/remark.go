package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Well-known values carried by remark exports.
const (
	SystemCollector     = "SYSTEM"
	CallStatusConnected = "CONNECTED"

	RemarkTypePredictive = "Predictive"
	RemarkTypeFollowUp   = "Follow Up"
	RemarkTypeOutgoing   = "Outgoing"

	CallTypePredictive = "Predictive"
	CallTypeManual     = "Manual"
)

// RemarkRecord represents one contact event (a dial attempt, a follow-up or a
// system disposition) taken from a call-center remark export.
//
// Nullable cells are pointers or decimal.NullDecimal: a nil Date means the cell
// could not be parsed, which is different from the zero value of a present cell.
type RemarkRecord struct {
	SourceRow int    `json:"source_row"`
	Source    string `json:"source,omitempty"`

	Date      *time.Time     `json:"date,omitempty"`
	TimeOfDay *time.Duration `json:"time_of_day,omitempty"`

	AccountNo  string `json:"account_no" validate:"required"`
	Debtor     string `json:"debtor,omitempty"`
	RemarkBy   string `json:"remark_by,omitempty"`
	RemarkType string `json:"remark_type,omitempty"`
	Status     string `json:"status,omitempty"`
	CallStatus string `json:"call_status,omitempty"`
	Remark     string `json:"remark,omitempty"`
	CallType   string `json:"call_type,omitempty"`

	PTPAmount decimal.NullDecimal `json:"ptp_amount"`
	Balance   decimal.NullDecimal `json:"balance"`

	TalkTimeSeconds     *int64 `json:"talk_time_seconds,omitempty"`
	CallDurationSeconds *int64 `json:"call_duration_seconds,omitempty"`

	Client    string `json:"client,omitempty"`
	CardNo    string `json:"card_no,omitempty"`
	Cycle     string `json:"cycle,omitempty"`
	ServiceNo string `json:"service_no,omitempty"`
}

// HasPTP reports whether the row carries a non-zero promise amount.
func (r RemarkRecord) HasPTP() bool {
	return r.PTPAmount.Valid && !r.PTPAmount.Decimal.IsZero()
}

// IsSystem reports whether the row was written by the dialer rather than a collector.
func (r RemarkRecord) IsSystem() bool {
	return strings.EqualFold(strings.TrimSpace(r.RemarkBy), SystemCollector)
}

// IsConnected reports whether the call reached the debtor.
func (r RemarkRecord) IsConnected() bool {
	return strings.EqualFold(strings.TrimSpace(r.CallStatus), CallStatusConnected)
}

// StatusContains is a case-insensitive substring test on Status.
// An empty status never matches.
func (r RemarkRecord) StatusContains(marker string) bool {
	if r.Status == "" || marker == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(r.Status), strings.ToUpper(marker))
}

// CycleID returns the campaign cycle identifier, preferring the card number,
// then an explicit cycle column, then the service number.
func (r RemarkRecord) CycleID() string {
	for _, v := range []string{r.CardNo, r.Cycle, r.ServiceNo} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// TalkSeconds returns the talk time of the call, falling back to the call
// duration when the export has no talk time column.
func (r RemarkRecord) TalkSeconds() (int64, bool) {
	if r.TalkTimeSeconds != nil {
		return *r.TalkTimeSeconds, true
	}
	if r.CallDurationSeconds != nil {
		return *r.CallDurationSeconds, true
	}
	return 0, false
}
