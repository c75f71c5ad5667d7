package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"remarkcli/internal/cache"
	"remarkcli/internal/dataprocessing"
)

// HealthService reports liveness, readiness and version information.
type HealthService struct {
	version   string
	buildTime string
	cache     cache.ResultCache
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

type statser interface {
	Stats() cache.Stats
}

// NewHealthService creates a health service. resultCache may be nil.
func NewHealthService(version, buildTime string, resultCache cache.ResultCache, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		cache:     resultCache,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck verifies the report engine and the result cache.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"reports": ServiceHealth{Status: "ready"},
			"cache":   hs.checkCache(ctx),
		},
	}

	for _, svc := range status.Services {
		if sh, ok := svc.(ServiceHealth); ok && sh.Status == "not_ready" {
			status.Status = "not_ready"
			break
		}
	}

	hs.logger.DebugContext(ctx, "readiness check completed", slog.String("status", status.Status))
	return status
}

func (hs *HealthService) checkCache(ctx context.Context) ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: "disabled"}
	}
	if p, ok := hs.cache.(pinger); ok {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return ServiceHealth{Status: "not_ready", Message: err.Error()}
		}
	}
	return ServiceHealth{Status: "ready"}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"report_kinds": len(dataprocessing.Kinds()),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if s, ok := hs.cache.(statser); ok {
		result["cache"] = s.Stats()
	}
	return result
}
