package dataprocessing

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"remarkcli/pkg/contracts/domain"
)

// KeyKind selects how records are grouped into rows or split into tables.
type KeyKind string

const (
	KeyNone          KeyKind = ""
	KeyDate          KeyKind = "date"
	KeyDateCollector KeyKind = "date_collector"
	KeyDateClient    KeyKind = "date_client"
	KeyCollector     KeyKind = "collector"
	KeyClient        KeyKind = "client"
	KeyCycle         KeyKind = "cycle"
	KeyBalanceBucket KeyKind = "balance_bucket"
)

// Key column names
const (
	ColumnDate         = "DATE"
	ColumnCollector    = "COLLECTOR"
	ColumnClient       = "CLIENT"
	ColumnCycle        = "CYCLE"
	ColumnBalanceRange = "BALANCE RANGE"

	noCycleTableName   = "No Cycle"
	cycleTablePrefix   = "Cycle "
	balanceTablePrefix = "Balance "
)

// Requirements lists the input columns the key reads.
func (k KeyKind) Requirements() []Requirement {
	switch k {
	case KeyDate:
		return []Requirement{Require(FieldDate)}
	case KeyDateCollector:
		return []Requirement{Require(FieldDate), Require(FieldRemarkBy)}
	case KeyDateClient:
		return []Requirement{Require(FieldDate), Require(FieldClient)}
	case KeyCollector:
		return []Requirement{Require(FieldRemarkBy)}
	case KeyClient:
		return []Requirement{Require(FieldClient)}
	case KeyCycle:
		return []Requirement{Require(FieldCardNo, FieldCycle, FieldServiceNo)}
	case KeyBalanceBucket:
		return []Requirement{Require(FieldBalance)}
	default:
		return nil
	}
}

// Columns lists the key columns a row-grouped table starts with.
func (k KeyKind) Columns() []domain.Column {
	switch k {
	case KeyDate:
		return []domain.Column{{Name: ColumnDate, Kind: domain.ColumnDate}}
	case KeyDateCollector:
		return []domain.Column{{Name: ColumnDate, Kind: domain.ColumnDate}, {Name: ColumnCollector, Kind: domain.ColumnText}}
	case KeyDateClient:
		return []domain.Column{{Name: ColumnDate, Kind: domain.ColumnDate}, {Name: ColumnClient, Kind: domain.ColumnText}}
	case KeyCollector:
		return []domain.Column{{Name: ColumnCollector, Kind: domain.ColumnText}}
	case KeyClient:
		return []domain.Column{{Name: ColumnClient, Kind: domain.ColumnText}}
	case KeyCycle:
		return []domain.Column{{Name: ColumnCycle, Kind: domain.ColumnText}}
	case KeyBalanceBucket:
		return []domain.Column{{Name: ColumnBalanceRange, Kind: domain.ColumnText}}
	default:
		return nil
	}
}

// group is one partition of the input, records in original order.
type group struct {
	key     domain.GroupKey
	sort    sortKey
	records []domain.RemarkRecord
}

type sortKey struct {
	date   *time.Time
	texts  []string
	bucket int
}

type grouper struct {
	kind    KeyKind
	buckets []BalanceBucket
}

// extract builds the key of rec. ok is false when rec belongs to no group,
// which only happens for balances outside every bucket.
func (g grouper) extract(rec *domain.RemarkRecord) (domain.GroupKey, sortKey, bool) {
	var key domain.GroupKey
	var sk sortKey

	switch g.kind {
	case KeyDate, KeyDateCollector, KeyDateClient:
		key.Date = rec.Date
		sk.date = rec.Date
	}

	switch g.kind {
	case KeyDateCollector, KeyCollector:
		// Names group case-insensitively; the row shows the first spelling seen.
		key.Collector = strings.TrimSpace(rec.RemarkBy)
		sk.texts = []string{strings.ToUpper(key.Collector)}
	case KeyDateClient, KeyClient:
		key.Client = strings.TrimSpace(rec.Client)
		sk.texts = []string{strings.ToUpper(key.Client)}
	case KeyCycle:
		key.Cycle = rec.CycleID()
		sk.texts = []string{key.Cycle}
	case KeyBalanceBucket:
		i := bucketIndex(g.buckets, rec.Balance)
		if i < 0 {
			return key, sk, false
		}
		key.Bucket = g.buckets[i].Name
		key.Label = g.buckets[i].Label
		sk.bucket = i
	}

	return key, sk, true
}

// partition groups records by key and orders groups ascending. With
// seedBuckets every bucket gets a group, even when nothing falls into it.
func (g grouper) partition(records []domain.RemarkRecord, seedBuckets bool) []*group {
	index := make(map[string]*group)
	var groups []*group

	if seedBuckets && g.kind == KeyBalanceBucket {
		for i, b := range g.buckets {
			grp := &group{
				key:  domain.GroupKey{Bucket: b.Name, Label: b.Label},
				sort: sortKey{bucket: i},
			}
			index[identity(grp.sort)] = grp
			groups = append(groups, grp)
		}
	}

	for i := range records {
		key, sk, ok := g.extract(&records[i])
		if !ok {
			continue
		}
		id := identity(sk)
		grp, seen := index[id]
		if !seen {
			grp = &group{key: key, sort: sk}
			index[id] = grp
			groups = append(groups, grp)
		}
		grp.records = append(grp.records, records[i])
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return lessSortKey(groups[i].sort, groups[j].sort)
	})
	return groups
}

// tableName names a split table after its key.
func (g grouper) tableName(key domain.GroupKey) string {
	switch g.kind {
	case KeyCycle:
		if key.Cycle == "" {
			return noCycleTableName
		}
		return cycleTablePrefix + key.Cycle
	case KeyBalanceBucket:
		return balanceTablePrefix + key.Bucket
	case KeyCollector, KeyDateCollector:
		return key.Collector
	case KeyClient, KeyDateClient:
		return key.Client
	case KeyDate:
		if key.Date == nil {
			return domain.NullDisplay
		}
		return key.Date.Format(DateLayout)
	default:
		return ""
	}
}

func identity(sk sortKey) string {
	var b strings.Builder
	if sk.date != nil {
		b.WriteString(sk.date.Format(DateLayout))
	} else {
		b.WriteString("-")
	}
	for _, t := range sk.texts {
		b.WriteByte(0)
		b.WriteString(t)
	}
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(sk.bucket))
	return b.String()
}

// lessSortKey orders dates chronologically with missing dates last, then text
// keys with numeric awareness, then buckets in preset order.
func lessSortKey(a, b sortKey) bool {
	switch {
	case a.date == nil && b.date != nil:
		return false
	case a.date != nil && b.date == nil:
		return true
	case a.date != nil && b.date != nil && !a.date.Equal(*b.date):
		return a.date.Before(*b.date)
	}

	for i := 0; i < len(a.texts) && i < len(b.texts); i++ {
		if a.texts[i] != b.texts[i] {
			return lessText(a.texts[i], b.texts[i])
		}
	}

	return a.bucket < b.bucket
}

func lessText(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil && na != nb {
		return na < nb
	}
	return a < b
}
