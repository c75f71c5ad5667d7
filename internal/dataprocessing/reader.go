package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "remarkcli/internal/errors"
)

// headerScanRows bounds how far down a sheet the header row is searched for.
const headerScanRows = 10

// RawTable is an uploaded file reduced to a header row and its data rows.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
	// HeaderRow is the 1-based sheet row of the header, used in warnings.
	HeaderRow int
	// SerialTimes marks workbook input where times are fractions of a day.
	SerialTimes bool
}

// Scope returns the file stem used to name per-file reports.
func (t *RawTable) Scope() string {
	base := filepath.Base(t.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadTable reads an .xlsx or .csv upload. name is only used to choose the
// format and to label the result.
func ReadTable(r io.Reader, name string) (*RawTable, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(r, name)
	case ".csv":
		return readCSV(r, name)
	default:
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("unsupported file type %q, expected .xlsx or .csv", filepath.Ext(name)), nil)
	}
}

// readWorkbook takes the first sheet whose header row carries an account
// column, else the sheet with the best candidate header so the schema check
// can name every missing column. Cells are read raw so dates and times
// arrive as Excel serial numbers.
func readWorkbook(r io.Reader, name string) (*RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	var best *RawTable
	bestScore := -1
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
		}
		table, score, found := tableFromRows(rows, name)
		table.SerialTimes = true
		if found {
			return table, nil
		}
		if score > bestScore {
			best, bestScore = table, score
		}
	}

	if best == nil {
		return &RawTable{Source: name, SerialTimes: true}, nil
	}
	return best, nil
}

func readCSV(r io.Reader, name string) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read csv", err)
	}

	table, _, _ := tableFromRows(rows, name)
	return table, nil
}

// tableFromRows locates the header row among the first rows of a sheet: the
// first row with an account column. Without one it falls back to the row
// that resolves the most known columns (found is false). score is the number
// of known columns in the chosen header.
func tableFromRows(rows [][]string, name string) (table *RawTable, score int, found bool) {
	headerAt := func(i int) *RawTable {
		return &RawTable{Source: name, Header: rows[i], Rows: rows[i+1:], HeaderRow: i + 1}
	}

	best, bestScore := -1, 0
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		schema := NewSchema(rows[i])
		if schema.Has(FieldAccountNo) {
			return headerAt(i), schema.Len(), true
		}
		if n := schema.Len(); best < 0 || n > bestScore {
			best, bestScore = i, n
		}
	}

	if best < 0 {
		return &RawTable{Source: name}, 0, false
	}
	return headerAt(best), bestScore, false
}
