package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const goodCSV = `Date,Account No.,Remark By,Remark Type,Status,Call Status,PTP Amount,Balance,Talk Time Duration,Card No.
2024-01-15,A1,AGENT01,Predictive,PTP,CONNECTED,500,7000,60,7
2024-01-15,A2,AGENT02,Outgoing,NO ANSWER,,0,8000,0,9
`

const badCSV = `Date,Remark By
2024-01-15,AGENT01
`

func writeInputs(t *testing.T, files map[string]string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		paths = append(paths, p)
	}
	return dir, paths
}

func glob(t *testing.T, dir, pattern string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	require.NoError(t, err)
	return matches
}

func TestRun_WritesWorkbooks(t *testing.T) {
	_, inputs := writeInputs(t, map[string]string{"jan.csv": goodCSV, "feb.csv": goodCSV, "broken.csv": badCSV})
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"-kind", "daily", "-out", out}, inputs...), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Len(t, glob(t, out, "DailySummary_jan_*.xlsx"), 1)
	assert.Len(t, glob(t, out, "DailySummary_feb_*.xlsx"), 1)
	combined := glob(t, out, "DailySummary_Combined_*.xlsx")
	require.Len(t, combined, 1)

	f, err := excelize.OpenFile(combined[0])
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Daily Remark Summary"}, f.GetSheetList())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, stdout.String(), "FAILED  broken.csv:")
	assert.Contains(t, stdout.String(), "OK      jan.csv: 2 rows, 2 retained, 1 tables ->")
	assert.Contains(t, stdout.String(), "OK      Combined: 4 rows")
}

func TestRun_NoCombined(t *testing.T) {
	_, inputs := writeInputs(t, map[string]string{"jan.csv": goodCSV, "feb.csv": goodCSV})
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"-combined=false", "-out", out}, inputs...), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Len(t, glob(t, out, "*.xlsx"), 2)
	assert.Empty(t, glob(t, out, "*_Combined_*"))
}

func TestRun_CSVAndPrint(t *testing.T) {
	_, inputs := writeInputs(t, map[string]string{"jan.csv": goodCSV})
	out := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run(append([]string{"-kind", "cycle", "-format", "csv", "-print", "-out", out}, inputs...), &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Len(t, glob(t, out, "CycleSummary_jan_Cycle_7_*.csv"), 1)
	assert.Len(t, glob(t, out, "CycleSummary_jan_Cycle_9_*.csv"), 1)
	assert.Contains(t, stdout.String(), "Cycle 7 - Daily Summary per Cycle\n")
}

func TestRun_Failures(t *testing.T) {
	_, bad := writeInputs(t, map[string]string{"a.csv": badCSV})
	_, good := writeInputs(t, map[string]string{"jan.csv": goodCSV})

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no files", args: nil, want: exitUsage},
		{name: "every file failed", args: bad, want: exitAllFailed},
		{name: "missing file", args: []string{filepath.Join(t.TempDir(), "nope.csv")}, want: exitAllFailed},
		{name: "unknown kind", args: append([]string{"-kind", "weekly"}, good...), want: exitUsage},
		{name: "bad preset", args: append([]string{"-percent", "half"}, good...), want: exitUsage},
		{name: "bad weekday", args: append([]string{"-exclude-weekday", "funday"}, good...), want: exitUsage},
		{name: "bad format", args: append([]string{"-format", "pdf"}, good...), want: exitUsage},
		{name: "missing config", args: append([]string{"-config", filepath.Join(t.TempDir(), "none.yaml")}, good...), want: exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			args := append([]string{"-out", t.TempDir()}, tt.args...)
			assert.Equal(t, tt.want, run(args, &stdout, &stderr))
		})
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Remark Report v")
}

func TestParseFlags_RecordsExplicitBools(t *testing.T) {
	var stderr bytes.Buffer
	f, err := parseFlags([]string{"-manual-correction=false", "x.csv"}, &stderr)
	require.NoError(t, err)

	assert.True(t, f.set["manual-correction"])
	assert.False(t, f.set["dedupe-ptp"])
	assert.Equal(t, []string{"x.csv"}, f.files)
	assert.True(t, f.combined)
}
