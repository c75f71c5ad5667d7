package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"remarkcli/internal/dataprocessing"
	"remarkcli/pkg/contracts/domain"
)

// MaxSheetNameLength is the xlsx limit on sheet names.
const MaxSheetNameLength = 31

// WorkbookExt is the extension of exported files.
const WorkbookExt = ".xlsx"

var hundred = decimal.NewFromInt(100)

// SanitizeSheetName removes characters xlsx forbids in sheet names and
// truncates to 31 characters.
func SanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '*', '?', '[', ']':
			return -1
		}
		return r
	}, name)
	cleaned = strings.Trim(strings.TrimSpace(cleaned), "'")

	if runes := []rune(cleaned); len(runes) > MaxSheetNameLength {
		cleaned = strings.TrimSpace(string(runes[:MaxSheetNameLength]))
	}
	if cleaned == "" {
		return "Sheet"
	}
	return cleaned
}

// FileName builds the export file name <Label>_<Scope>_<YYYYMMDD>.xlsx.
func FileName(label, scope string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s%s", label, fileComponent(scope), date.Format("20060102"), WorkbookExt)
}

func fileComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Report"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, s)
}

// cellValue converts a display cell back to the typed value excelize should
// store. Null cells stay empty. Key labels in a date column ("Total") are
// kept as text.
func cellValue(kind domain.ColumnKind, cell domain.Cell) (interface{}, error) {
	if !cell.Valid {
		return nil, nil
	}
	v := strings.TrimSpace(cell.Value)

	switch kind {
	case domain.ColumnDate:
		if t, err := time.Parse(dataprocessing.DateLayout, v); err == nil {
			return t, nil
		}
		return cell.Value, nil
	case domain.ColumnInteger:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", v, err)
		}
		return n, nil
	case domain.ColumnDecimal:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", v, err)
		}
		return f, nil
	case domain.ColumnAmount:
		d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", v, err)
		}
		return d.InexactFloat64(), nil
	case domain.ColumnPercent:
		d, err := decimal.NewFromString(strings.TrimSuffix(v, "%"))
		if err != nil {
			return nil, fmt.Errorf("invalid percent %q: %w", v, err)
		}
		return d.Div(hundred).InexactFloat64(), nil
	case domain.ColumnDuration:
		secs, err := durationSeconds(v)
		if err != nil {
			return nil, err
		}
		return float64(secs) / 86400, nil
	default:
		return cell.Value, nil
	}
}

// durationSeconds parses HH:MM:SS where hours may exceed 24.
func durationSeconds(v string) (int64, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", v)
		}
		total = total*60 + n
	}
	return total, nil
}
