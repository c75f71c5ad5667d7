package dataprocessing

import (
	"fmt"
	"regexp"
	"strings"

	"remarkcli/internal/config"
	apperrors "remarkcli/internal/errors"
	"remarkcli/pkg/contracts/domain"
)

// ExclusionRule names one row exclusion predicate.
type ExclusionRule string

const (
	RuleCollector   ExclusionRule = "collector"
	RuleStatus      ExclusionRule = "status"
	RuleRemark      ExclusionRule = "remark"
	RuleDebtor      ExclusionRule = "debtor"
	RuleRemarkRegex ExclusionRule = "remark_regex"
)

// ExclusionRules drops rows that never describe a real contact attempt.
// A row survives when no active rule matches it; empty text never matches.
type ExclusionRules struct {
	collectors    map[string]struct{}
	statuses      []string
	remarks       []string
	debtorPattern string
	remarkRegex   *regexp.Regexp
}

// NewExclusionRules compiles the configured lists. Matching is
// case-insensitive and blank entries are ignored.
func NewExclusionRules(cfg config.ExclusionConfig) (*ExclusionRules, error) {
	r := &ExclusionRules{
		collectors:    make(map[string]struct{}),
		statuses:      upperAll(cfg.Statuses),
		remarks:       upperAll(cfg.Remarks),
		debtorPattern: strings.ToUpper(strings.TrimSpace(cfg.DebtorPattern)),
	}
	for _, c := range upperAll(cfg.Collectors) {
		r.collectors[c] = struct{}{}
	}

	if cfg.RemarkRegex != "" {
		re, err := regexp.Compile(cfg.RemarkRegex)
		if err != nil {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("invalid remark exclusion regex: %v", err))
		}
		r.remarkRegex = re
	}

	return r, nil
}

// Match returns the first rule that excludes rec.
func (r *ExclusionRules) Match(rec *domain.RemarkRecord) (ExclusionRule, bool) {
	if by := strings.ToUpper(strings.TrimSpace(rec.RemarkBy)); by != "" {
		if _, ok := r.collectors[by]; ok {
			return RuleCollector, true
		}
	}
	if containsAny(rec.Status, r.statuses) {
		return RuleStatus, true
	}
	if containsAny(rec.Remark, r.remarks) {
		return RuleRemark, true
	}
	if r.debtorPattern != "" && rec.Debtor != "" && strings.Contains(strings.ToUpper(rec.Debtor), r.debtorPattern) {
		return RuleDebtor, true
	}
	if r.remarkRegex != nil && rec.Remark != "" && r.remarkRegex.MatchString(rec.Remark) {
		return RuleRemarkRegex, true
	}
	return "", false
}

// FilterResult holds the retained rows and how many rows each rule removed.
type FilterResult struct {
	Retained []domain.RemarkRecord
	Excluded map[ExclusionRule]int
}

// TotalExcluded sums the per-rule counts.
func (f FilterResult) TotalExcluded() int {
	n := 0
	for _, c := range f.Excluded {
		n += c
	}
	return n
}

// Apply returns the surviving records in their original order. A row
// matched by several rules is counted under the first one only.
func (r *ExclusionRules) Apply(records []domain.RemarkRecord) FilterResult {
	result := FilterResult{
		Retained: make([]domain.RemarkRecord, 0, len(records)),
		Excluded: make(map[ExclusionRule]int),
	}
	for i := range records {
		if rule, ok := r.Match(&records[i]); ok {
			result.Excluded[rule]++
			continue
		}
		result.Retained = append(result.Retained, records[i])
	}
	return result
}

func containsAny(text string, needles []string) bool {
	if text == "" || len(needles) == 0 {
		return false
	}
	upper := strings.ToUpper(text)
	for _, n := range needles {
		if strings.Contains(upper, n) {
			return true
		}
	}
	return false
}

func upperAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
