package domain

import (
	"time"
)

// WarningType classifies a non-fatal problem found while building a report
type WarningType string

const (
	WarningParse       WarningType = "parse"
	WarningEmptyResult WarningType = "empty_result"
)

// Warning is a non-fatal problem surfaced next to a report.
type Warning struct {
	Type    WarningType `json:"type"`
	Row     int         `json:"row,omitempty"`
	Column  string      `json:"column,omitempty"`
	Value   string      `json:"value,omitempty"`
	Message string      `json:"message"`
}

// ReportScopeCombined is the scope identifier of a report built from every file in a batch.
const ReportScopeCombined = "Combined"

// Report is the complete result of one report run over one scope.
type Report struct {
	ID           string        `json:"id" validate:"required,uuid"`
	Kind         string        `json:"kind" validate:"required"`
	Scope        string        `json:"scope" validate:"required"`
	GeneratedAt  time.Time     `json:"generated_at"`
	RowsLoaded   int           `json:"rows_loaded"`
	RowsRetained int           `json:"rows_retained"`
	Tables       NamedTableSet `json:"tables"`
	Warnings     []Warning     `json:"warnings,omitempty"`
	Cached       bool          `json:"cached,omitempty"`
}

// ParseWarnings counts the parse warnings attached to the report.
func (r *Report) ParseWarnings() int {
	n := 0
	for _, w := range r.Warnings {
		if w.Type == WarningParse {
			n++
		}
	}
	return n
}

// FileResult is the outcome of one input file in a batch.
// Exactly one of Report and Error is set.
type FileResult struct {
	File   string  `json:"file"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult groups per-file results with the combined report.
type BatchResult struct {
	Kind     string       `json:"kind"`
	Files    []FileResult `json:"files"`
	Combined *Report      `json:"combined,omitempty"`
}

// Succeeded counts files that produced a report.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, f := range b.Files {
		if f.Report != nil {
			n++
		}
	}
	return n
}
