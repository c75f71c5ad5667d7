package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "remarkcli/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	MaxFiles        int           `yaml:"max_files" envconfig:"MAX_FILES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ReportConfig holds the defaults every report kind starts from.
type ReportConfig struct {
	DefaultKind      string          `yaml:"default_kind" envconfig:"DEFAULT_KIND"`
	PercentPreset    string          `yaml:"percent_preset" envconfig:"PERCENT_PRESET"`
	BucketPreset     string          `yaml:"bucket_preset" envconfig:"BUCKET_PRESET"`
	DedupePTP        bool            `yaml:"dedupe_ptp" envconfig:"DEDUPE_PTP"`
	DropCallMarker   string          `yaml:"drop_call_marker" envconfig:"DROP_CALL_MARKER"`
	OutputDir        string          `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	BatchParallelism int             `yaml:"batch_parallelism" envconfig:"BATCH_PARALLELISM"`
	Exclusions       ExclusionConfig `yaml:"exclusions" envconfig:"EXCLUSIONS"`
}

// ExclusionConfig lists the rows dropped before aggregation.
type ExclusionConfig struct {
	Collectors    []string `yaml:"collectors" envconfig:"COLLECTORS"`
	Statuses      []string `yaml:"statuses" envconfig:"STATUSES"`
	Remarks       []string `yaml:"remarks" envconfig:"REMARKS"`
	DebtorPattern string   `yaml:"debtor_pattern" envconfig:"DEBTOR_PATTERN"`
	RemarkRegex   string   `yaml:"remark_regex" envconfig:"REMARK_REGEX"`
}

// CacheConfig configures memoization of report results
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled" envconfig:"ENABLED"`
	TTL         time.Duration `yaml:"ttl" envconfig:"TTL"`
	MaxEntries  int           `yaml:"max_entries" envconfig:"MAX_ENTRIES"`
	EnableRedis bool          `yaml:"enable_redis" envconfig:"ENABLE_REDIS"`
	RedisURL    string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	KeyPrefix   string        `yaml:"key_prefix" envconfig:"KEY_PREFIX"`
}

// TelemetryConfig configures OpenTelemetry providers
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, then the YAML file (if any),
// then REMARK_* environment variables. Later sources win field by field.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err)
		}
	}

	// Fields without a matching variable are left untouched.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive when enabled")
	}

	switch c.Report.PercentPreset {
	case PercentPresetInteger, PercentPresetTwoDecimal:
	default:
		return fmt.Errorf("invalid percent preset: %q", c.Report.PercentPreset)
	}

	switch c.Report.BucketPreset {
	case BucketPresetStandard, BucketPresetFine:
	default:
		return fmt.Errorf("invalid bucket preset: %q", c.Report.BucketPreset)
	}

	if c.Report.BatchParallelism <= 0 {
		c.Report.BatchParallelism = 1
	}

	if c.Report.Exclusions.RemarkRegex != "" {
		if _, err := regexp.Compile(c.Report.Exclusions.RemarkRegex); err != nil {
			return fmt.Errorf("invalid remark exclusion regex: %w", err)
		}
	}

	if c.Cache.EnableRedis && strings.TrimSpace(c.Cache.RedisURL) == "" {
		return fmt.Errorf("redis cache enabled without a redis url")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			MaxFiles:        DefaultMaxFiles,
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Report: ReportConfig{
			DefaultKind:      "daily",
			PercentPreset:    PercentPresetInteger,
			BucketPreset:     BucketPresetStandard,
			DropCallMarker:   DefaultDropCallMarker,
			OutputDir:        DefaultOutputDir,
			BatchParallelism: 4,
			Exclusions: ExclusionConfig{
				Statuses:      []string{"ABORT"},
				Remarks:       append([]string(nil), DefaultExcludedRemarks...),
				DebtorPattern: DefaultDebtorPattern,
				RemarkRegex:   DefaultRemarkRegex,
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        ReportCacheDuration,
			MaxEntries: 64,
			KeyPrefix:  "remarkcli:report:",
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
