package dataprocessing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"remarkcli/internal/config"
	apperrors "remarkcli/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ReportOptions is everything that decides the content of a report.
type ReportOptions struct {
	Kind          string `json:"kind" validate:"required"`
	PercentPreset string `json:"percent_preset" validate:"required,oneof=integer two_decimal"`
	BucketPreset  string `json:"bucket_preset" validate:"required,oneof=standard fine"`
	// ManualCorrection overrides the kind's default when set.
	ManualCorrection *bool         `json:"manual_correction,omitempty"`
	DedupePTP        bool          `json:"dedupe_ptp"`
	// ExcludedWeekday holds a time.Weekday (Sunday is 0). ParseWeekday maps
	// the Monday-first numbers users type onto it.
	ExcludedWeekday  *time.Weekday `json:"excluded_weekday,omitempty" validate:"omitempty,min=0,max=6"`
	DropCallMarker   string        `json:"drop_call_marker"`

	Exclusions config.ExclusionConfig `json:"exclusions"`
}

// DefaultReportOptions builds options for kind from the report configuration.
func DefaultReportOptions(cfg config.ReportConfig, kind string) ReportOptions {
	if kind == "" {
		kind = cfg.DefaultKind
	}
	return ReportOptions{
		Kind:           kind,
		PercentPreset:  cfg.PercentPreset,
		BucketPreset:   cfg.BucketPreset,
		DedupePTP:      cfg.DedupePTP,
		DropCallMarker: cfg.DropCallMarker,
		Exclusions:     cfg.Exclusions,
	}
}

// Validate checks the options and resolves the report kind.
func (o ReportOptions) Validate() (ReportKind, error) {
	if err := getValidator().Struct(o); err != nil {
		return ReportKind{}, apperrors.NewAppValidationError(describeValidation(err))
	}
	kind, ok := LookupKind(o.Kind)
	if !ok {
		return ReportKind{}, apperrors.NewNotFoundError(fmt.Sprintf("report kind %q", o.Kind))
	}
	return kind, nil
}

// manualCorrection resolves the effective flag for kind.
func (o ReportOptions) manualCorrection(kind ReportKind) bool {
	if o.ManualCorrection != nil {
		return *o.ManualCorrection
	}
	return kind.ManualCorrection
}

// Fingerprint is a stable encoding of the options, used in cache keys.
func (o ReportOptions) Fingerprint() string {
	data, err := json.Marshal(o)
	if err != nil {
		return o.Kind
	}
	return string(data)
}

// ParseWeekday accepts a weekday name ("sunday", "Sun") or a number counted
// from Monday, so 0 is Monday and 6 is Sunday.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("invalid weekday %q: numbers run from 0 (Monday) to 6 (Sunday)", s)
		}
		return time.Weekday((n + 1) % 7), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return "invalid report options: " + strings.Join(msgs, "; ")
}
