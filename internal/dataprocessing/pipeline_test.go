package dataprocessing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remarkcli/internal/config"
	apperrors "remarkcli/internal/errors"
	"remarkcli/pkg/contracts/domain"
)

const remarkCSV = `Date,Time,Account No.,Debtor,Remark By,Remark Type,Status,Call Status,Remark,PTP Amount,Balance,Talk Time Duration,Card No.,Call Type
2024-01-15,09:00:00,A1,JUAN,AGENT01,Predictive,PTP - NEW,CONNECTED,Promised,500,"7,000.00",120,7,Predictive
2024-01-15,09:05:00,A1,JUAN,AGENT01,Follow Up,NO ANSWER,,Retry,0,"7,000.00",0,7,Predictive
2024-01-15,09:10:00,A2,ANA,SYSTEM,Predictive,DROPPED,,,0,"60,000.00",0,10,Predictive
2024-01-15,09:20:00,A3,DEFAULT_LEAD_1,AGENT02,Outgoing,PTP,CONNECTED,Promised,900,"120,000.00",300,10,Manual
2024-01-14,10:00:00,A4,PEDRO,AGENT02,Outgoing,RINGING,CONNECTED,,0,"8,000.00",60,7,Manual
2024-01-16,10:00:00,A5,MARIA,AGENT02,Outgoing,CALL ABORT,CONNECTED,,0,"8,000.00",60,7,Manual
2024-01-16,11:00:00,A6,MARIA,AGENT02,Predictive,NO ANSWER,,Broken Promise,0,"8,000.00",0,7,Predictive
2024-01-16,12:00:00,A7,ROSA,AGENT01,Outgoing,NEGATIVE CALLOUTS - DROP CALL,CONNECTED,,0,"55,000.00",15,10,Manual
`

func readRemarks(t *testing.T) *RawTable {
	t.Helper()
	raw, err := ReadTable(strings.NewReader(remarkCSV), "Remarks Jan.csv")
	require.NoError(t, err)
	return raw
}

func testPipeline() *Pipeline {
	p := NewPipeline(nil)
	p.now = func() time.Time { return time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC) }
	return p
}

func TestPipeline_RunDaily(t *testing.T) {
	opts := DefaultReportOptions(config.Default().Report, "daily")
	sunday := time.Sunday
	opts.ExcludedWeekday = &sunday

	report, err := testPipeline().Run(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)

	assert.Equal(t, "daily", report.Kind)
	assert.Equal(t, "Remarks Jan", report.Scope)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC), report.GeneratedAt)
	assert.Equal(t, 7, report.RowsLoaded, "Sunday row is dropped while loading")
	// A3 debtor placeholder, A5 status ABORT and A6 broken promise are excluded
	assert.Equal(t, 4, report.RowsRetained)

	require.Equal(t, 1, report.Tables.Len())
	table := report.Tables.Tables[0]
	assert.Equal(t, "Daily Remark Summary", table.Name)
	require.Len(t, table.Rows, 3)

	day15 := table.Rows[0]
	assert.Equal(t, "2024-01-15", day15[0].Value)
	assert.Equal(t, "2", day15[table.ColumnIndex(ColumnAccounts)].Value)
	assert.Equal(t, "3", day15[table.ColumnIndex(ColumnTotalDialed)].Value)
	assert.Equal(t, "150%", day15[table.ColumnIndex(ColumnPenetrationRate)].Value)
	assert.Equal(t, "1", day15[table.ColumnIndex(ColumnPTPAcc)].Value)
	assert.Equal(t, "1", day15[table.ColumnIndex(ColumnSystemDrop)].Value)
	assert.Equal(t, "100%", day15[table.ColumnIndex(ColumnCallDropRatio)].Value)
	assert.Equal(t, "500.00", day15[table.ColumnIndex(ColumnTotalPTPAmount)].Value)
	assert.Equal(t, "7000.00", day15[table.ColumnIndex(ColumnTotalBalance)].Value)
	assert.Equal(t, "00:02:00", day15[table.ColumnIndex(ColumnTotalTalkTime)].Value)

	day16 := table.Rows[1]
	assert.Equal(t, "2024-01-16", day16[0].Value)
	assert.Equal(t, "1", day16[table.ColumnIndex(ColumnCallDrop)].Value)
	assert.Equal(t, "0%", day16[table.ColumnIndex(ColumnCallDropRatio)].Value, "daily uses SYSTEM DROP")

	total := table.Rows[2]
	assert.Equal(t, domain.TotalLabel, total[0].Value)
	assert.Equal(t, "4", total[table.ColumnIndex(ColumnTotalDialed)].Value)
}

func TestPipeline_ManualCorrectionOverride(t *testing.T) {
	opts := DefaultReportOptions(config.Default().Report, "daily")
	manual := true
	opts.ManualCorrection = &manual

	report, err := testPipeline().Run(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)

	table := report.Tables.Tables[0]
	var day16 []domain.Cell
	for _, row := range table.Rows {
		if row[0].Value == "2024-01-16" {
			day16 = row
		}
	}
	require.NotNil(t, day16)
	assert.Equal(t, "100%", day16[table.ColumnIndex(ColumnCallDropRatio)].Value)
}

func TestPipeline_RunCycle(t *testing.T) {
	opts := DefaultReportOptions(config.Default().Report, "cycle")

	report, err := testPipeline().Run(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cycle 7", "Cycle 10"}, report.Tables.Names())
}

func TestPipeline_RunBalance(t *testing.T) {
	opts := DefaultReportOptions(config.Default().Report, "balance")
	opts.Exclusions = config.ExclusionConfig{}

	report, err := testPipeline().Run(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)

	table := report.Tables.Tables[0]
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "6,000.00 to 49,999.99", table.Rows[0][0].Value)
	assert.Equal(t, "5", table.Rows[0][table.ColumnIndex(ColumnOverallCombined)].Value)
	assert.Equal(t, "2", table.Rows[0][table.ColumnIndex(ColumnOverallManual)].Value)
	assert.Equal(t, "40%", table.Rows[0][table.ColumnIndex(ColumnManualShare)].Value)
	assert.Equal(t, "8", table.Rows[3][table.ColumnIndex(ColumnTotalDialed)].Value)
}

func TestPipeline_EmptyResult(t *testing.T) {
	opts := DefaultReportOptions(config.Default().Report, "daily")
	opts.Exclusions.Statuses = []string{""}
	opts.Exclusions.Collectors = []string{"AGENT01", "AGENT02", "SYSTEM"}

	report, err := testPipeline().Run(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)

	assert.Equal(t, 0, report.RowsRetained)
	require.Equal(t, 1, report.Tables.Len())
	assert.True(t, report.Tables.Tables[0].NoData)
	assert.False(t, report.Tables.HasData())
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, domain.WarningEmptyResult, report.Warnings[len(report.Warnings)-1].Type)
}

func TestPipeline_Combined(t *testing.T) {
	p := testPipeline()
	opts := DefaultReportOptions(config.Default().Report, "daily")

	first, err := p.Load(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)
	second, err := p.Load(context.Background(), readRemarks(t), opts)
	require.NoError(t, err)

	report, err := p.Build(context.Background(), domain.ReportScopeCombined, opts, first, second)
	require.NoError(t, err)
	assert.Equal(t, domain.ReportScopeCombined, report.Scope)
	assert.Equal(t, 16, report.RowsLoaded)
}

func TestPipeline_Errors(t *testing.T) {
	p := testPipeline()

	opts := DefaultReportOptions(config.Default().Report, "weekly")
	_, err := p.Run(context.Background(), readRemarks(t), opts)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	opts = DefaultReportOptions(config.Default().Report, "daily")
	opts.PercentPreset = "three_decimal"
	_, err = p.Run(context.Background(), readRemarks(t), opts)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	raw := &RawTable{Source: "x.csv", Header: []string{"Account No."}, Rows: [][]string{{"A1"}}}
	_, err = p.Run(context.Background(), raw, DefaultReportOptions(config.Default().Report, "daily"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"sunday", time.Sunday},
		{"Sun", time.Sunday},
		{"6", time.Sunday},
		{"0", time.Monday},
		{" 5 ", time.Saturday},
		{"mon", time.Monday},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseWeekday(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	for _, in := range []string{"someday", "7", "-1"} {
		_, err := ParseWeekday(in)
		assert.Error(t, err, in)
	}
}

func TestReportOptions_ValidateWeekdayBound(t *testing.T) {
	opts := DefaultReportOptions(config.Default().Report, "daily")
	day, err := ParseWeekday("6")
	require.NoError(t, err)
	opts.ExcludedWeekday = &day
	_, err = opts.Validate()
	require.NoError(t, err)

	bad := time.Weekday(7)
	opts.ExcludedWeekday = &bad
	_, err = opts.Validate()
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestKinds(t *testing.T) {
	kinds := Kinds()
	require.Len(t, kinds, 8)
	assert.Equal(t, "balance", kinds[0].Name)

	cycle, ok := LookupKind("cycle")
	require.True(t, ok)
	assert.Equal(t, []string{"DATE", "CARD NO. / CYCLE / SERVICE NO."}, NewSchema(nil).Missing(cycle.Requirements()))
}
