package dataprocessing

import (
	"sort"

	"remarkcli/pkg/contracts/domain"
)

var (
	allOutboundTypes = []string{domain.RemarkTypePredictive, domain.RemarkTypeFollowUp, domain.RemarkTypeOutgoing}
	predictiveTypes  = []string{domain.RemarkTypePredictive, domain.RemarkTypeFollowUp}
	manualTypes      = []string{domain.RemarkTypeOutgoing}
)

// ReportKind is a named configuration of the aggregation engine.
type ReportKind struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	FileLabel   string   `json:"file_label"`
	RowKey      KeyKind  `json:"row_key"`
	SplitKey    KeyKind  `json:"split_key,omitempty"`
	AllowList   []string `json:"allow_list,omitempty"`
	TotalRow    bool     `json:"total_row"`
	CallTypeMix bool     `json:"call_type_mix"`
	// ManualCorrection is the default for this kind; options may override it.
	ManualCorrection bool `json:"manual_correction"`
}

// Requirements lists the input columns a report of this kind needs.
func (k ReportKind) Requirements() []Requirement {
	reqs := append([]Requirement{}, k.RowKey.Requirements()...)
	return append(reqs, k.SplitKey.Requirements()...)
}

var reportKinds = map[string]ReportKind{
	"daily": {
		Name: "daily", Title: "Daily Remark Summary", FileLabel: "DailySummary",
		RowKey: KeyDate, AllowList: allOutboundTypes, TotalRow: true,
	},
	"predictive": {
		Name: "predictive", Title: "Predictive Dialing Summary", FileLabel: "PredictiveSummary",
		RowKey: KeyDate, AllowList: predictiveTypes, TotalRow: true,
	},
	"manual": {
		Name: "manual", Title: "Manual Dialing Summary", FileLabel: "ManualSummary",
		RowKey: KeyDate, AllowList: manualTypes, TotalRow: true, ManualCorrection: true,
	},
	"collector": {
		Name: "collector", Title: "Collector Productivity", FileLabel: "CollectorSummary",
		RowKey: KeyDateCollector, AllowList: allOutboundTypes, TotalRow: true, ManualCorrection: true,
	},
	"client": {
		Name: "client", Title: "Client Summary", FileLabel: "ClientSummary",
		RowKey: KeyDateClient, AllowList: allOutboundTypes, TotalRow: true,
	},
	"cycle": {
		Name: "cycle", Title: "Daily Summary per Cycle", FileLabel: "CycleSummary",
		RowKey: KeyDate, SplitKey: KeyCycle, AllowList: allOutboundTypes, TotalRow: true,
	},
	"balance": {
		Name: "balance", Title: "Per Balance Summary", FileLabel: "BalanceSummary",
		RowKey: KeyBalanceBucket, TotalRow: true, CallTypeMix: true,
	},
	"balance-daily": {
		Name: "balance-daily", Title: "Daily Summary per Balance Range", FileLabel: "BalanceDailySummary",
		RowKey: KeyDate, SplitKey: KeyBalanceBucket, AllowList: allOutboundTypes, TotalRow: true,
	},
}

// LookupKind returns the report kind registered under name.
func LookupKind(name string) (ReportKind, bool) {
	k, ok := reportKinds[name]
	return k, ok
}

// Kinds lists every report kind sorted by name.
func Kinds() []ReportKind {
	kinds := make([]ReportKind, 0, len(reportKinds))
	for _, k := range reportKinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}
