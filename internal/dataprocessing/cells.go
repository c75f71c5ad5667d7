package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

const secondsPerDay = 24 * 60 * 60

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"01-02-2006",
	"01-02-06",
	"02-Jan-2006",
	"02-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

// parseDate returns the calendar date at midnight UTC plus the clock part of
// the cell, if it had one. Excel serial numbers are accepted.
func parseDate(s string) (time.Time, time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, 0, false
	}

	var t time.Time
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v < 1 || v > maxExcelSerial {
			return time.Time{}, 0, false
		}
		parsed, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, 0, false
		}
		t = parsed
	} else {
		found := false
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t, found = parsed, true
				break
			}
		}
		if !found {
			return time.Time{}, 0, false
		}
	}

	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	clock := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	return day, clock, true
}

// parseClock parses a time-of-day cell. Fractions of a day are accepted when
// serial is set.
func parseClock(s string, serial bool) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if !serial || v < 0 || v >= 1 {
			return 0, false
		}
		return time.Duration(math.Round(v*secondsPerDay)) * time.Second, true
	}

	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}

	if _, clock, ok := parseDate(s); ok && clock > 0 {
		return clock, true
	}
	return 0, false
}

// parseAmount parses a numeric cell. Empty cells are zero; thousands
// separators and spaces are ignored.
func parseAmount(s string) (decimal.NullDecimal, bool) {
	s = strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return decimal.NewNullDecimal(decimal.Zero), true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

// parseSeconds parses a duration cell given as seconds, HH:MM:SS or MM:SS.
// Fractions of a day are accepted when serial is set.
func parseSeconds(s string, serial bool) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, false
		}
		var total int64
		for _, p := range parts {
			n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
			if err != nil || n < 0 {
				return 0, false
			}
			total = total*60 + n
		}
		return total, true
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	if serial && v > 0 && v < 1 && strings.Contains(s, ".") {
		return int64(math.Round(v * secondsPerDay)), true
	}
	return int64(math.Round(v)), true
}
