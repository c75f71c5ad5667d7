package dataprocessing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"remarkcli/internal/config"
)

// BalanceBucket is a half-open balance range [Min, Max). A null Max is unbounded.
type BalanceBucket struct {
	Name  string
	Label string
	Min   decimal.Decimal
	Max   decimal.NullDecimal
}

// Contains reports whether v falls inside the bucket.
func (b BalanceBucket) Contains(v decimal.Decimal) bool {
	if v.LessThan(b.Min) {
		return false
	}
	return !b.Max.Valid || v.LessThan(b.Max.Decimal)
}

// bucket builds [lo, hi); hi <= 0 means unbounded.
func bucket(name, label string, lo, hi int64) BalanceBucket {
	b := BalanceBucket{Name: name, Label: label, Min: decimal.NewFromInt(lo)}
	if hi > 0 {
		b.Max = decimal.NewNullDecimal(decimal.NewFromInt(hi))
	}
	return b
}

var bucketPresets = map[string][]BalanceBucket{
	config.BucketPresetStandard: {
		bucket("6K-49K", "6,000.00 to 49,999.99", 6000, 50000),
		bucket("50K-99K", "50,000.00 to 99,999.99", 50000, 100000),
		bucket("100K+", "100,000.00 and above", 100000, 0),
	},
	config.BucketPresetFine: {
		bucket("0-9K", "0.00 to 9,999.99", 0, 10000),
		bucket("10K-49K", "10,000.00 to 49,999.99", 10000, 50000),
		bucket("50K-99K", "50,000.00 to 99,999.99", 50000, 100000),
		bucket("100K+", "100,000.00 and above", 100000, 0),
	},
}

// BucketPreset returns the named bucket scheme in ascending order.
func BucketPreset(name string) ([]BalanceBucket, error) {
	buckets, ok := bucketPresets[name]
	if !ok {
		return nil, fmt.Errorf("unknown bucket preset %q", name)
	}
	return buckets, nil
}

// bucketIndex finds the bucket holding balance, or -1. Null balances and
// balances outside every range belong to no bucket.
func bucketIndex(buckets []BalanceBucket, balance decimal.NullDecimal) int {
	if !balance.Valid {
		return -1
	}
	for i, b := range buckets {
		if b.Contains(balance.Decimal) {
			return i
		}
	}
	return -1
}
