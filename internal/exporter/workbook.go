package exporter

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	apperrors "remarkcli/internal/errors"
	"remarkcli/pkg/contracts/domain"
)

const (
	titleRow      = 1
	headerRow     = 2
	firstDataRow  = 3
	widthPadding  = 2
	maxColumnWide = 60

	dateNumFmt = "yyyy-mm-dd"
)

// Built-in excelize number formats.
const (
	numFmtInteger       = 1  // 0
	numFmtDecimal       = 2  // 0.00
	numFmtAmount        = 4  // #,##0.00
	numFmtPercent       = 9  // 0%
	numFmtPercentFormal = 10 // 0.00%
	numFmtDuration      = 46 // [h]:mm:ss
)

// WorkbookWriter serializes a NamedTableSet into an xlsx workbook, one sheet per table.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger.With(slog.String("component", "workbook_writer"))}
}

// Write renders every table of the set and returns the workbook bytes.
// A duplicate sheet name or a table without rows fails the whole export.
func (w *WorkbookWriter) Write(set domain.NamedTableSet) ([]byte, error) {
	if set.Len() == 0 {
		return nil, apperrors.NewExportError("no tables to export", nil)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Warn("failed to close workbook", slog.String("error", err.Error()))
		}
	}()

	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, apperrors.NewExportError("failed to create styles", err)
	}

	defaultSheet := f.GetSheetName(0)
	seen := make(map[string]bool, set.Len())
	for i, table := range set.Tables {
		name := SanitizeSheetName(table.Name)
		folded := strings.ToLower(name)
		if seen[folded] {
			return nil, apperrors.NewExportError(fmt.Sprintf("duplicate sheet name %q", name), nil)
		}
		seen[folded] = true

		if table.NoData || len(table.Rows) == 0 {
			return nil, apperrors.NewExportError(fmt.Sprintf("table %q has no rows", table.Name), nil)
		}

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, apperrors.NewExportError("failed to name sheet", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, apperrors.NewExportError("failed to add sheet", err)
		}

		if err := w.writeSheet(f, name, &table, styles); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.NewExportError("failed to serialize workbook", err)
	}

	w.logger.Debug("workbook written",
		slog.Int("sheets", set.Len()),
		slog.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (w *WorkbookWriter) writeSheet(f *excelize.File, sheet string, table *domain.Table, styles *sheetStyles) error {
	lastCol := len(table.Columns)
	if lastCol == 0 {
		return apperrors.NewExportError(fmt.Sprintf("table %q has no columns", table.Name), nil)
	}

	title := table.Title
	if title == "" {
		title = table.Name
	}
	if err := f.SetCellValue(sheet, cellName(1, titleRow), title); err != nil {
		return apperrors.NewExportError("failed to write title", err)
	}
	if lastCol > 1 {
		if err := f.MergeCell(sheet, cellName(1, titleRow), cellName(lastCol, titleRow)); err != nil {
			return apperrors.NewExportError("failed to merge title", err)
		}
	}
	if err := f.SetCellStyle(sheet, cellName(1, titleRow), cellName(lastCol, titleRow), styles.title); err != nil {
		return apperrors.NewExportError("failed to style title", err)
	}

	widths := make([]int, lastCol)
	header := make([]interface{}, lastCol)
	for i, col := range table.Columns {
		header[i] = col.Name
		widths[i] = utf8.RuneCountInString(col.Name)
	}
	if err := f.SetSheetRow(sheet, cellName(1, headerRow), &header); err != nil {
		return apperrors.NewExportError("failed to write header", err)
	}
	if err := f.SetCellStyle(sheet, cellName(1, headerRow), cellName(lastCol, headerRow), styles.header); err != nil {
		return apperrors.NewExportError("failed to style header", err)
	}

	for r, row := range table.Rows {
		if len(row) != lastCol {
			return apperrors.NewExportError(
				fmt.Sprintf("table %q row %d has %d cells, want %d", table.Name, r+1, len(row), lastCol), nil)
		}
		values := make([]interface{}, lastCol)
		for c, cell := range row {
			v, err := cellValue(table.Columns[c].Kind, cell)
			if err != nil {
				return apperrors.NewExportError(
					fmt.Sprintf("table %q column %s", table.Name, table.Columns[c].Name), err)
			}
			values[c] = v
			if n := utf8.RuneCountInString(cell.String()); n > widths[c] {
				widths[c] = n
			}
		}
		if err := f.SetSheetRow(sheet, cellName(1, firstDataRow+r), &values); err != nil {
			return apperrors.NewExportError("failed to write row", err)
		}
	}

	lastRow := firstDataRow + len(table.Rows) - 1
	for c, col := range table.Columns {
		style := styles.forKind(col.Kind, table.PercentDecimals)
		if err := f.SetCellStyle(sheet, cellName(c+1, firstDataRow), cellName(c+1, lastRow), style); err != nil {
			return apperrors.NewExportError("failed to style column", err)
		}
		colName, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return apperrors.NewExportError("invalid column", err)
		}
		if err := f.SetColWidth(sheet, colName, colName, columnWidth(widths[c])); err != nil {
			return apperrors.NewExportError("failed to size column", err)
		}
	}

	return nil
}

func columnWidth(runes int) float64 {
	w := runes + widthPadding
	if w > maxColumnWide {
		w = maxColumnWide
	}
	return float64(w)
}

func cellName(col, row int) string {
	// col and row are always positive here.
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

type sheetStyles struct {
	title, header                       int
	text, date, integer, decimal        int
	amount, duration, percent, percent2 int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	var s sheetStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}
	dateFmt := dateNumFmt

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 13},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFF2CC"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    border,
		}},
		{&s.text, &excelize.Style{Border: border}},
		{&s.date, &excelize.Style{Border: border, CustomNumFmt: &dateFmt}},
		{&s.integer, &excelize.Style{Border: border, NumFmt: numFmtInteger}},
		{&s.decimal, &excelize.Style{Border: border, NumFmt: numFmtDecimal}},
		{&s.amount, &excelize.Style{Border: border, NumFmt: numFmtAmount}},
		{&s.duration, &excelize.Style{Border: border, NumFmt: numFmtDuration}},
		{&s.percent, &excelize.Style{Border: border, NumFmt: numFmtPercent}},
		{&s.percent2, &excelize.Style{Border: border, NumFmt: numFmtPercentFormal}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func (s *sheetStyles) forKind(kind domain.ColumnKind, percentDecimals int) int {
	switch kind {
	case domain.ColumnDate:
		return s.date
	case domain.ColumnInteger:
		return s.integer
	case domain.ColumnDecimal:
		return s.decimal
	case domain.ColumnAmount:
		return s.amount
	case domain.ColumnDuration:
		return s.duration
	case domain.ColumnPercent:
		if percentDecimals > 0 {
			return s.percent2
		}
		return s.percent
	default:
		return s.text
	}
}
