package dataprocessing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "remarkcli/internal/errors"
	"remarkcli/pkg/contracts/domain"
)

// MaxParseWarnings caps the warnings kept per file. The count in
// LoadResult.ParseFailures is never capped.
const MaxParseWarnings = 200

// LoadOptions configures LoadRecords.
type LoadOptions struct {
	// Required lists the columns the report cannot be built without.
	// ACCOUNT NO. is always required.
	Required []Requirement
	// ExcludedWeekday drops rows dated on that weekday. Rows without a date
	// are kept.
	ExcludedWeekday *time.Weekday
}

// LoadResult is the typed form of a RawTable.
type LoadResult struct {
	Source        string
	Records       []domain.RemarkRecord
	Warnings      []domain.Warning
	ParseFailures int
	WeekdayDrops  int
}

// LoadRecords converts raw rows into remark records. Unparsable cells become
// null and produce a parse warning; the row is kept. Fully blank rows are
// skipped.
func LoadRecords(raw *RawTable, opts LoadOptions) (*LoadResult, error) {
	schema := NewSchema(raw.Header)

	required := append([]Requirement{Require(FieldAccountNo)}, opts.Required...)
	if missing := schema.Missing(required); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	l := &rowLoader{schema: schema, serial: raw.SerialTimes, result: &LoadResult{Source: raw.Source}}

	for i, row := range raw.Rows {
		if isBlank(row) {
			continue
		}
		rec := l.load(row, raw.HeaderRow+1+i)
		rec.Source = raw.Source

		if opts.ExcludedWeekday != nil && rec.Date != nil && rec.Date.Weekday() == *opts.ExcludedWeekday {
			l.result.WeekdayDrops++
			continue
		}
		l.result.Records = append(l.result.Records, rec)
	}

	return l.result, nil
}

type rowLoader struct {
	schema Schema
	serial bool
	result *LoadResult
	row    []string
	line   int
}

func (l *rowLoader) load(row []string, line int) domain.RemarkRecord {
	l.row, l.line = row, line

	rec := domain.RemarkRecord{
		SourceRow:  line,
		AccountNo:  l.text(FieldAccountNo),
		Debtor:     l.text(FieldDebtor),
		RemarkBy:   l.text(FieldRemarkBy),
		RemarkType: l.text(FieldRemarkType),
		Status:     l.text(FieldStatus),
		CallStatus: l.text(FieldCallStatus),
		Remark:     l.text(FieldRemark),
		CallType:   l.text(FieldCallType),
		Client:     l.text(FieldClient),
		CardNo:     l.text(FieldCardNo),
		Cycle:      l.text(FieldCycle),
		ServiceNo:  l.text(FieldServiceNo),
		PTPAmount:  l.amount(FieldPTPAmount),
		Balance:    l.amount(FieldBalance),
	}

	if v, ok := l.cell(FieldDate); ok && v != "" {
		if day, clock, parsed := parseDate(v); parsed {
			rec.Date = &day
			if clock > 0 {
				rec.TimeOfDay = &clock
			}
		} else {
			l.warn(FieldDate, v, "unparsable date")
		}
	}

	if v, ok := l.cell(FieldTime); ok && v != "" {
		if clock, parsed := parseClock(v, l.serial); parsed {
			rec.TimeOfDay = &clock
		} else {
			l.warn(FieldTime, v, "unparsable time")
		}
	}

	rec.TalkTimeSeconds = l.seconds(FieldTalkTime)
	rec.CallDurationSeconds = l.seconds(FieldCallDuration)

	return rec
}

// cell returns the trimmed value of f. ok is false when the column is absent;
// short rows yield an empty value.
func (l *rowLoader) cell(f Field) (string, bool) {
	i, ok := l.schema.Index(f)
	if !ok {
		return "", false
	}
	if i >= len(l.row) {
		return "", true
	}
	return strings.TrimSpace(l.row[i]), true
}

func (l *rowLoader) text(f Field) string {
	v, _ := l.cell(f)
	return v
}

func (l *rowLoader) amount(f Field) decimal.NullDecimal {
	v, _ := l.cell(f)
	parsed, ok := parseAmount(v)
	if !ok {
		l.warn(f, v, "non-numeric value")
	}
	return parsed
}

// seconds returns nil when the column is absent or the cell is unparsable.
func (l *rowLoader) seconds(f Field) *int64 {
	v, present := l.cell(f)
	if !present {
		return nil
	}
	n, ok := parseSeconds(v, l.serial)
	if !ok {
		l.warn(f, v, "unparsable duration")
		return nil
	}
	return &n
}

func (l *rowLoader) warn(f Field, value, reason string) {
	l.result.ParseFailures++
	if len(l.result.Warnings) >= MaxParseWarnings {
		return
	}
	l.result.Warnings = append(l.result.Warnings, domain.Warning{
		Type:    domain.WarningParse,
		Row:     l.line,
		Column:  string(f),
		Value:   value,
		Message: fmt.Sprintf("%s in %s, treated as missing", reason, f),
	})
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
