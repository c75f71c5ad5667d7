package dataprocessing

import (
	"strings"
)

// Field is a canonical input column.
type Field string

const (
	FieldDate         Field = "DATE"
	FieldTime         Field = "TIME"
	FieldAccountNo    Field = "ACCOUNT NO."
	FieldDebtor       Field = "DEBTOR"
	FieldRemarkBy     Field = "REMARK BY"
	FieldRemarkType   Field = "REMARK TYPE"
	FieldStatus       Field = "STATUS"
	FieldCallStatus   Field = "CALL STATUS"
	FieldRemark       Field = "REMARK"
	FieldCallType     Field = "CALL TYPE"
	FieldPTPAmount    Field = "PTP AMOUNT"
	FieldBalance      Field = "BALANCE"
	FieldTalkTime     Field = "TALK TIME DURATION"
	FieldCallDuration Field = "CALL DURATION"
	FieldClient       Field = "CLIENT"
	FieldCardNo       Field = "CARD NO."
	FieldCycle        Field = "CYCLE"
	FieldServiceNo    Field = "SERVICE NO."
)

// fieldAliases maps normalized header spellings seen in dialer exports to
// canonical fields.
var fieldAliases = map[string]Field{
	"DATE":                FieldDate,
	"REMARK DATE":         FieldDate,
	"CALL DATE":           FieldDate,
	"TIME":                FieldTime,
	"REMARK TIME":         FieldTime,
	"ACCOUNT NO.":         FieldAccountNo,
	"ACCOUNT NO":          FieldAccountNo,
	"ACCOUNT NUMBER":      FieldAccountNo,
	"ACCOUNT #":           FieldAccountNo,
	"ACCT NO.":            FieldAccountNo,
	"DEBTOR":              FieldDebtor,
	"DEBTOR NAME":         FieldDebtor,
	"REMARK BY":           FieldRemarkBy,
	"COLLECTOR":           FieldRemarkBy,
	"REMARK TYPE":         FieldRemarkType,
	"STATUS":              FieldStatus,
	"CALL STATUS":         FieldCallStatus,
	"REMARK":              FieldRemark,
	"REMARKS":             FieldRemark,
	"CALL TYPE":           FieldCallType,
	"PTP AMOUNT":          FieldPTPAmount,
	"PTP AMT":             FieldPTPAmount,
	"BALANCE":             FieldBalance,
	"OB":                  FieldBalance,
	"OUTSTANDING BALANCE": FieldBalance,
	"TALK TIME DURATION":  FieldTalkTime,
	"TALK TIME":           FieldTalkTime,
	"CALL DURATION":       FieldCallDuration,
	"CLIENT":              FieldClient,
	"CAMPAIGN":            FieldClient,
	"CARD NO.":            FieldCardNo,
	"CARD NO":             FieldCardNo,
	"CARD NUMBER":         FieldCardNo,
	"CYCLE":               FieldCycle,
	"SERVICE NO.":         FieldServiceNo,
	"SERVICE NO":          FieldServiceNo,
}

// NormalizeHeader trims, upper-cases and collapses inner whitespace.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToUpper(h)), " ")
}

// LookupField resolves a raw header to its canonical field.
func LookupField(header string) (Field, bool) {
	f, ok := fieldAliases[NormalizeHeader(header)]
	return f, ok
}

// Requirement is satisfied when any one of its fields is present.
type Requirement []Field

// String names the requirement the way a missing-column error reports it.
func (r Requirement) String() string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = string(f)
	}
	return strings.Join(names, " / ")
}

// Require is shorthand for a single-field requirement.
func Require(fields ...Field) Requirement {
	return Requirement(fields)
}

// Schema maps canonical fields to column positions of a header row.
// When two headers resolve to the same field the first one wins.
type Schema struct {
	columns map[Field]int
}

// NewSchema resolves a header row. Unknown columns are ignored.
func NewSchema(header []string) Schema {
	s := Schema{columns: make(map[Field]int, len(header))}
	for i, h := range header {
		f, ok := LookupField(h)
		if !ok {
			continue
		}
		if _, seen := s.columns[f]; !seen {
			s.columns[f] = i
		}
	}
	return s
}

// Index returns the column position of f.
func (s Schema) Index(f Field) (int, bool) {
	i, ok := s.columns[f]
	return i, ok
}

// Len returns the number of known columns found.
func (s Schema) Len() int {
	return len(s.columns)
}

// Has reports whether f is present.
func (s Schema) Has(f Field) bool {
	_, ok := s.columns[f]
	return ok
}

// Missing lists the unsatisfied requirements in order.
func (s Schema) Missing(required []Requirement) []string {
	var missing []string
	for _, req := range required {
		satisfied := false
		for _, f := range req {
			if s.Has(f) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, req.String())
		}
	}
	return missing
}
