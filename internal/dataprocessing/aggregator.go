package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"remarkcli/pkg/contracts/domain"
)

// Status markers
const (
	MarkerPTP     = "PTP"
	MarkerDropped = "DROPPED"
)

// AggregateOptions configures one aggregation run.
type AggregateOptions struct {
	// TableName names the table when SplitKey is KeyNone.
	TableName string
	RowKey    KeyKind
	// SplitKey produces one table per key value.
	SplitKey KeyKind
	// AllowList restricts ACCOUNTS and TOTAL DIALED to these remark types.
	// Empty allows every type.
	AllowList []string
	// ManualCorrection uses CALL DROP # instead of SYSTEM DROP as the
	// CALL DROP RATIO numerator.
	ManualCorrection bool
	// DedupePTP keeps only the last promise row per account when summing
	// PTP amounts and balances.
	DedupePTP      bool
	DropCallMarker string
	Buckets        []BalanceBucket
	TotalRow       bool
}

// Aggregator groups filtered remark records and computes the metric vector per group.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger.With("component", "aggregator")}
}

// Aggregate returns one summary per output table. Empty input yields a
// single summary marked Empty.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.RemarkRecord, opts AggregateOptions) []domain.Summary {
	if len(records) == 0 {
		a.logger.InfoContext(ctx, "no records left to aggregate", slog.String("table", opts.TableName))
		return []domain.Summary{{Name: opts.TableName, Empty: true}}
	}

	policy := newMetricPolicy(opts)
	rows := grouper{kind: opts.RowKey, buckets: opts.Buckets}

	if opts.SplitKey == KeyNone {
		return []domain.Summary{a.summarize(opts.TableName, records, rows, policy, opts.TotalRow)}
	}

	split := grouper{kind: opts.SplitKey, buckets: opts.Buckets}
	parts := split.partition(records, false)
	summaries := make([]domain.Summary, 0, len(parts))
	for _, part := range parts {
		summaries = append(summaries, a.summarize(split.tableName(part.key), part.records, rows, policy, opts.TotalRow))
	}

	if len(summaries) == 0 {
		// every record fell outside the split buckets
		return []domain.Summary{{Name: opts.TableName, Empty: true}}
	}

	a.logger.DebugContext(ctx, "aggregated split tables",
		slog.Int("tables", len(summaries)),
		slog.Int("records", len(records)))

	return summaries
}

func (a *Aggregator) summarize(name string, records []domain.RemarkRecord, g grouper, policy metricPolicy, withTotal bool) domain.Summary {
	groups := g.partition(records, true)

	summary := domain.Summary{Name: name, Rows: make([]domain.SummaryRow, 0, len(groups)+1)}
	var grouped []domain.RemarkRecord
	metrics := make([]domain.Metrics, 0, len(groups))

	for _, grp := range groups {
		m := policy.compute(grp.records)
		metrics = append(metrics, m)
		summary.Rows = append(summary.Rows, domain.SummaryRow{Key: grp.key, Metrics: m})
		grouped = append(grouped, grp.records...)
	}

	if len(grouped) == 0 {
		return domain.Summary{Name: name, Empty: true}
	}

	if withTotal {
		summary.Rows = append(summary.Rows, domain.SummaryRow{
			Key:     domain.GroupKey{Label: domain.TotalLabel},
			Metrics: policy.total(metrics, grouped),
			Total:   true,
		})
	}

	return summary
}

// metricPolicy carries the per-report switches that change metric formulas.
type metricPolicy struct {
	allow            map[string]struct{}
	manualCorrection bool
	dedupePTP        bool
	dropMarker       string
}

func newMetricPolicy(opts AggregateOptions) metricPolicy {
	p := metricPolicy{
		manualCorrection: opts.ManualCorrection,
		dedupePTP:        opts.DedupePTP,
		dropMarker:       opts.DropCallMarker,
	}
	if len(opts.AllowList) > 0 {
		p.allow = make(map[string]struct{}, len(opts.AllowList))
		for _, t := range opts.AllowList {
			p.allow[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
		}
	}
	return p
}

func (p metricPolicy) allowed(remarkType string) bool {
	if p.allow == nil {
		return true
	}
	_, ok := p.allow[strings.ToUpper(strings.TrimSpace(remarkType))]
	return ok
}

// ComputeMetrics computes the metric vector of one group with the given options.
func ComputeMetrics(records []domain.RemarkRecord, opts AggregateOptions) domain.Metrics {
	return newMetricPolicy(opts).compute(records)
}

// compute derives every metric of one group. Rows without an account number
// are not counted by any account based metric.
func (p metricPolicy) compute(records []domain.RemarkRecord) domain.Metrics {
	var m domain.Metrics

	accounts := make(map[string]struct{})
	connected := make(map[string]struct{})
	promised := make(map[string]struct{})
	lastPromise := make(map[string]int)
	var promiseOrder []string

	for i := range records {
		rec := &records[i]
		acct := strings.TrimSpace(rec.AccountNo)

		if secs, ok := rec.TalkSeconds(); ok {
			m.TalkTimeSeconds += secs
		}

		if rec.HasPTP() {
			if p.dedupePTP && acct != "" {
				if _, seen := lastPromise[acct]; !seen {
					promiseOrder = append(promiseOrder, acct)
				}
				lastPromise[acct] = i
			} else {
				m.TotalPTPAmount = m.TotalPTPAmount.Add(rec.PTPAmount.Decimal)
				m.TotalBalance = m.TotalBalance.Add(balanceOf(rec))
			}
		}

		if acct == "" {
			continue
		}

		if p.allowed(rec.RemarkType) {
			m.TotalDialed++
			accounts[acct] = struct{}{}
			switch {
			case strings.EqualFold(strings.TrimSpace(rec.CallType), domain.CallTypePredictive):
				m.PredictiveCalls++
			case strings.EqualFold(strings.TrimSpace(rec.CallType), domain.CallTypeManual):
				m.ManualCalls++
			}
		}

		if rec.IsConnected() {
			m.ConnectedCalls++
			connected[acct] = struct{}{}
		}

		if rec.StatusContains(MarkerPTP) && rec.HasPTP() {
			promised[acct] = struct{}{}
		}

		if rec.IsSystem() {
			if rec.StatusContains(MarkerDropped) {
				m.SystemDrop++
			}
		} else if rec.StatusContains(p.dropMarker) {
			m.CallDrop++
		}
	}

	for _, acct := range promiseOrder {
		rec := &records[lastPromise[acct]]
		m.TotalPTPAmount = m.TotalPTPAmount.Add(rec.PTPAmount.Decimal)
		m.TotalBalance = m.TotalBalance.Add(balanceOf(rec))
	}

	m.Accounts = len(accounts)
	m.ConnectedAccounts = len(connected)
	m.PTPAccounts = len(promised)
	m.Collectors = countCollectors(records)

	p.derive(&m)
	return m
}

// total builds the synthetic Total row: additive metrics are summed over the
// group rows, ratios are derived again from those sums and collector
// averages use the distinct collectors of all grouped records.
func (p metricPolicy) total(rows []domain.Metrics, records []domain.RemarkRecord) domain.Metrics {
	var t domain.Metrics
	for _, m := range rows {
		t.Accounts += m.Accounts
		t.TotalDialed += m.TotalDialed
		t.ConnectedAccounts += m.ConnectedAccounts
		t.ConnectedCalls += m.ConnectedCalls
		t.PTPAccounts += m.PTPAccounts
		t.TotalPTPAmount = t.TotalPTPAmount.Add(m.TotalPTPAmount)
		t.TotalBalance = t.TotalBalance.Add(m.TotalBalance)
		t.SystemDrop += m.SystemDrop
		t.CallDrop += m.CallDrop
		t.TalkTimeSeconds += m.TalkTimeSeconds
		t.PredictiveCalls += m.PredictiveCalls
		t.ManualCalls += m.ManualCalls
	}
	t.Collectors = countCollectors(records)

	p.derive(&t)
	return t
}

// derive fills the ratio and average metrics from the counts.
func (p metricPolicy) derive(m *domain.Metrics) {
	m.PenetrationRate = percentOf(m.TotalDialed, m.Accounts)
	m.ConnectedRate = percentOf(m.ConnectedCalls, m.TotalDialed)
	m.PTPRate = percentOf(m.PTPAccounts, m.ConnectedAccounts)

	drops := m.SystemDrop
	if p.manualCorrection {
		drops = m.CallDrop
	}
	m.CallDropRatio = percentOf(drops, m.ConnectedCalls)

	m.PredictiveShare = percentOf(m.PredictiveCalls, m.TotalDialed)
	m.ManualShare = percentOf(m.ManualCalls, m.TotalDialed)

	m.TalkTimeAverageSeconds = 0
	m.ConnectedAverage = 0
	if m.Collectors > 0 {
		m.TalkTimeAverageSeconds = int64(math.Round(float64(m.TalkTimeSeconds) / float64(m.Collectors)))
		m.ConnectedAverage = float64(m.ConnectedCalls) / float64(m.Collectors)
	}
}

// countCollectors counts distinct human collectors, case-insensitively.
func countCollectors(records []domain.RemarkRecord) int {
	seen := make(map[string]struct{})
	for i := range records {
		if records[i].IsSystem() {
			continue
		}
		if by := strings.ToUpper(strings.TrimSpace(records[i].RemarkBy)); by != "" {
			seen[by] = struct{}{}
		}
	}
	return len(seen)
}

func balanceOf(rec *domain.RemarkRecord) decimal.Decimal {
	if !rec.Balance.Valid {
		return decimal.Zero
	}
	return rec.Balance.Decimal
}

// percentOf returns num/den*100, or nil when den is zero.
func percentOf(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den) * 100
	return &v
}
