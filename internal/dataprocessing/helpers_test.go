package dataprocessing

import (
	"time"

	"github.com/shopspring/decimal"

	"remarkcli/pkg/contracts/domain"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func amount(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func secs(n int64) *int64 {
	return &n
}

// rec builds a predictive, non-connected dial of acct on 2024-01-15.
func rec(acct string, opts ...func(*domain.RemarkRecord)) domain.RemarkRecord {
	r := domain.RemarkRecord{
		Date:       day("2024-01-15"),
		AccountNo:  acct,
		RemarkBy:   "AGENT01",
		RemarkType: domain.RemarkTypePredictive,
		CallStatus: "NO ANSWER",
		PTPAmount:  amount(0),
		Balance:    amount(10000),
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func on(d string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.Date = day(d) }
}

func by(collector string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.RemarkBy = collector }
}

func remarkType(t string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.RemarkType = t }
}

func connected() func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.CallStatus = domain.CallStatusConnected }
}

func status(s string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.Status = s }
}

func ptp(v float64) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.PTPAmount = amount(v) }
}

func balance(v float64) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.Balance = amount(v) }
}

func talk(n int64) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.TalkTimeSeconds = secs(n) }
}

func callType(t string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.CallType = t }
}

func cycle(id string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.CardNo = id }
}

func remark(s string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.Remark = s }
}

func debtor(s string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.Debtor = s }
}

func pct(v float64) *float64 {
	return &v
}

func client(name string) func(*domain.RemarkRecord) {
	return func(r *domain.RemarkRecord) { r.Client = name }
}
