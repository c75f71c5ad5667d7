package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TotalLabel is the key text of the synthetic total row
const TotalLabel = "Total"

// GroupKey identifies one summary row. Only the fields of the row key kind
// are set.
type GroupKey struct {
	Date      *time.Time `json:"date,omitempty"`
	Collector string     `json:"collector,omitempty"`
	Client    string     `json:"client,omitempty"`
	Cycle     string     `json:"cycle,omitempty"`
	Bucket    string     `json:"bucket,omitempty"`
	Label     string     `json:"label,omitempty"`
}

// Metrics is the metric vector of one group. Rates are percentages on a
// 0-100 scale and nil when their denominator is zero.
type Metrics struct {
	Accounts          int `json:"accounts"`
	TotalDialed       int `json:"total_dialed"`
	ConnectedAccounts int `json:"connected_accounts"`
	ConnectedCalls    int `json:"connected_calls"`
	PTPAccounts       int `json:"ptp_accounts"`
	SystemDrop        int `json:"system_drop"`
	CallDrop          int `json:"call_drop"`
	Collectors        int `json:"collectors"`

	TotalPTPAmount decimal.Decimal `json:"total_ptp_amount"`
	TotalBalance   decimal.Decimal `json:"total_balance"`

	TalkTimeSeconds        int64   `json:"talk_time_seconds"`
	TalkTimeAverageSeconds int64   `json:"talk_time_average_seconds"`
	ConnectedAverage       float64 `json:"connected_average"`

	PenetrationRate *float64 `json:"penetration_rate"`
	ConnectedRate   *float64 `json:"connected_rate"`
	PTPRate         *float64 `json:"ptp_rate"`
	CallDropRatio   *float64 `json:"call_drop_ratio"`

	// Call-type mix
	PredictiveCalls int      `json:"predictive_calls"`
	ManualCalls     int      `json:"manual_calls"`
	PredictiveShare *float64 `json:"predictive_share"`
	ManualShare     *float64 `json:"manual_share"`
}

// SummaryRow is one grouped row, or the total row when Total is set.
type SummaryRow struct {
	Key     GroupKey `json:"key"`
	Metrics Metrics  `json:"metrics"`
	Total   bool     `json:"total,omitempty"`
}

// Summary is the aggregated content of one output table. Empty marks a
// table whose key had no rows after filtering.
type Summary struct {
	Name  string       `json:"name"`
	Rows  []SummaryRow `json:"rows"`
	Empty bool         `json:"empty,omitempty"`
}
