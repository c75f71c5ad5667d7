package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"remarkcli/internal/config"
	"remarkcli/pkg/contracts/domain"
)

// Metric column names in display order.
const (
	ColumnAccounts          = "ACCOUNTS"
	ColumnTotalDialed       = "TOTAL DIALED"
	ColumnPenetrationRate   = "PENETRATION RATE (%)"
	ColumnConnected         = "CONNECTED #"
	ColumnConnectedRate     = "CONNECTED RATE (%)"
	ColumnConnectedAcc      = "CONNECTED ACC"
	ColumnPTPAcc            = "PTP ACC"
	ColumnPTPRate           = "PTP RATE"
	ColumnTotalPTPAmount    = "TOTAL PTP AMOUNT"
	ColumnTotalBalance      = "TOTAL BALANCE"
	ColumnSystemDrop        = "SYSTEM DROP"
	ColumnCallDrop          = "CALL DROP #"
	ColumnCallDropRatio     = "CALL DROP RATIO #"
	ColumnTotalTalkTime     = "TOTAL TALK TIME"
	ColumnTalkTimeAverage   = "TALK TIME AVE"
	ColumnConnectedAverage  = "CONNECTED AVE"
	ColumnOverallCombined   = "OVERALL COMBINED"
	ColumnOverallPredictive = "OVERALL PREDICTIVE"
	ColumnOverallManual     = "OVERALL MANUAL"
	ColumnPredictiveShare   = "PREDICTIVE PER CYCLE"
	ColumnManualShare       = "MANUAL PER CYCLE"
)

var metricColumns = []domain.Column{
	{Name: ColumnAccounts, Kind: domain.ColumnInteger},
	{Name: ColumnTotalDialed, Kind: domain.ColumnInteger},
	{Name: ColumnPenetrationRate, Kind: domain.ColumnPercent},
	{Name: ColumnConnected, Kind: domain.ColumnInteger},
	{Name: ColumnConnectedRate, Kind: domain.ColumnPercent},
	{Name: ColumnConnectedAcc, Kind: domain.ColumnInteger},
	{Name: ColumnPTPAcc, Kind: domain.ColumnInteger},
	{Name: ColumnPTPRate, Kind: domain.ColumnPercent},
	{Name: ColumnTotalPTPAmount, Kind: domain.ColumnAmount},
	{Name: ColumnTotalBalance, Kind: domain.ColumnAmount},
	{Name: ColumnSystemDrop, Kind: domain.ColumnInteger},
	{Name: ColumnCallDrop, Kind: domain.ColumnInteger},
	{Name: ColumnCallDropRatio, Kind: domain.ColumnPercent},
	{Name: ColumnTotalTalkTime, Kind: domain.ColumnDuration},
	{Name: ColumnTalkTimeAverage, Kind: domain.ColumnDuration},
	{Name: ColumnConnectedAverage, Kind: domain.ColumnDecimal},
}

var callTypeColumns = []domain.Column{
	{Name: ColumnOverallCombined, Kind: domain.ColumnInteger},
	{Name: ColumnOverallPredictive, Kind: domain.ColumnInteger},
	{Name: ColumnOverallManual, Kind: domain.ColumnInteger},
	{Name: ColumnPredictiveShare, Kind: domain.ColumnPercent},
	{Name: ColumnManualShare, Kind: domain.ColumnPercent},
}

// FormatOptions controls how summaries become tables.
type FormatOptions struct {
	PercentPreset string
	RowKey        KeyKind
	CallTypeMix   bool
	// Title is prefixed with the table name for split tables.
	Title string
}

// Formatter converts raw summaries into display tables.
type Formatter struct {
	percentDecimals int
}

// NewFormatter creates a formatter for a percent preset.
func NewFormatter(percentPreset string) (*Formatter, error) {
	switch percentPreset {
	case config.PercentPresetInteger:
		return &Formatter{percentDecimals: 0}, nil
	case config.PercentPresetTwoDecimal:
		return &Formatter{percentDecimals: 2}, nil
	default:
		return nil, fmt.Errorf("unknown percent preset %q", percentPreset)
	}
}

// Columns returns the full column schema for a row key.
func Columns(rowKey KeyKind, callTypeMix bool) []domain.Column {
	cols := append([]domain.Column{}, rowKey.Columns()...)
	cols = append(cols, metricColumns...)
	if callTypeMix {
		cols = append(cols, callTypeColumns...)
	}
	return cols
}

// Table formats one summary. An empty summary becomes a NoData table that
// still carries its schema.
func (f *Formatter) Table(s domain.Summary, opts FormatOptions) domain.Table {
	t := domain.Table{
		Name:            s.Name,
		Title:           opts.Title,
		Columns:         Columns(opts.RowKey, opts.CallTypeMix),
		PercentDecimals: f.percentDecimals,
		NoData:          s.Empty || len(s.Rows) == 0,
	}
	if s.Name != "" && opts.Title != "" && s.Name != opts.Title {
		t.Title = s.Name + " - " + opts.Title
	}

	for _, row := range s.Rows {
		cells := f.keyCells(row, opts.RowKey)
		cells = append(cells, f.metricCells(row.Metrics)...)
		if opts.CallTypeMix {
			cells = append(cells, f.callTypeCells(row.Metrics)...)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func (f *Formatter) keyCells(row domain.SummaryRow, kind KeyKind) []domain.Cell {
	n := len(kind.Columns())
	cells := make([]domain.Cell, 0, n)

	if row.Total {
		cells = append(cells, domain.TextCell(domain.TotalLabel))
		for len(cells) < n {
			cells = append(cells, domain.TextCell(""))
		}
		return cells
	}

	k := row.Key
	switch kind {
	case KeyDate, KeyDateCollector, KeyDateClient:
		cells = append(cells, FormatDate(k.Date))
	}
	switch kind {
	case KeyDateCollector, KeyCollector:
		cells = append(cells, textOrNull(k.Collector))
	case KeyDateClient, KeyClient:
		cells = append(cells, textOrNull(k.Client))
	case KeyCycle:
		cells = append(cells, textOrNull(k.Cycle))
	case KeyBalanceBucket:
		cells = append(cells, domain.TextCell(k.Label))
	}
	return cells
}

func (f *Formatter) metricCells(m domain.Metrics) []domain.Cell {
	return []domain.Cell{
		intCell(m.Accounts),
		intCell(m.TotalDialed),
		f.Percent(m.PenetrationRate),
		intCell(m.ConnectedAccounts),
		f.Percent(m.ConnectedRate),
		intCell(m.ConnectedCalls),
		intCell(m.PTPAccounts),
		f.Percent(m.PTPRate),
		domain.TextCell(FormatAmount(m.TotalPTPAmount)),
		domain.TextCell(FormatAmount(m.TotalBalance)),
		intCell(m.SystemDrop),
		intCell(m.CallDrop),
		f.Percent(m.CallDropRatio),
		domain.TextCell(FormatDuration(m.TalkTimeSeconds)),
		domain.TextCell(FormatDuration(m.TalkTimeAverageSeconds)),
		domain.TextCell(strconv.FormatFloat(roundHalfUp(m.ConnectedAverage, 2), 'f', 2, 64)),
	}
}

func (f *Formatter) callTypeCells(m domain.Metrics) []domain.Cell {
	return []domain.Cell{
		intCell(m.TotalDialed),
		intCell(m.PredictiveCalls),
		intCell(m.ManualCalls),
		f.Percent(m.PredictiveShare),
		f.Percent(m.ManualShare),
	}
}

// Percent renders a percentage with the preset precision. Integer rounding
// is half-to-even; nil stays null.
func (f *Formatter) Percent(v *float64) domain.Cell {
	if v == nil {
		return domain.NullCell()
	}
	if f.percentDecimals == 0 {
		return domain.TextCell(strconv.FormatFloat(math.RoundToEven(*v), 'f', 0, 64) + "%")
	}
	return domain.TextCell(strconv.FormatFloat(*v, 'f', f.percentDecimals, 64) + "%")
}

// FormatAmount renders a currency-like sum with 2 decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDuration renders seconds as zero-padded HH:MM:SS. Hours are not
// wrapped at 24.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// DateLayout is the display layout of date keys.
const DateLayout = "2006-01-02"

// FormatDate renders a date key, null when the date was missing.
func FormatDate(d *time.Time) domain.Cell {
	if d == nil {
		return domain.NullCell()
	}
	return domain.TextCell(d.Format(DateLayout))
}

func textOrNull(s string) domain.Cell {
	if s == "" {
		return domain.NullCell()
	}
	return domain.TextCell(s)
}

func intCell(n int) domain.Cell {
	return domain.TextCell(strconv.Itoa(n))
}

func roundHalfUp(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
