package config

import "time"

// Application constants
const (
	AppName    = "Remark Report"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (REMARK_SERVER_PORT, ...)
	EnvPrefix = "REMARK"

	// Upload limits
	DefaultMaxUploadBytes = 64 << 20 // 64MB
	DefaultMaxFiles       = 20

	// Rate Limiting
	DefaultRateLimit = 10 // uploads per second
	DefaultBurstSize = 20

	// Cache Settings
	ReportCacheDuration = 1 * time.Hour

	// Log Settings
	DefaultLogLevel = "info"
	DefaultLogFile  = "logs/remarkcli.log"

	DefaultOutputDir = "reports"
)

// Formatting and bucketing presets
const (
	PercentPresetInteger    = "integer"
	PercentPresetTwoDecimal = "two_decimal"

	BucketPresetStandard = "standard"
	BucketPresetFine     = "fine"
)

// Row exclusion defaults
const (
	DefaultDropCallMarker = "NEGATIVE CALLOUTS - DROP CALL"
	DefaultDebtorPattern  = "DEFAULT_LEAD_"
	// Dialer-generated "New PTP" bookkeeping remarks
	DefaultRemarkRegex = `(?i)^\s*new\s+ptp\b`
)

// DefaultExcludedRemarks are system remarks that never describe a contact attempt.
var DefaultExcludedRemarks = []string{
	"Broken Promise",
	"New files imported",
	"Updates when case reassign to another collector",
	"NDF IN ICS",
	"FOR PULL OUT (END OF HANDLING PERIOD)",
	"END OF HANDLING PERIOD",
	"New Assignment -",
	"File Unhold",
	"Permanent Message Deletion",
}
