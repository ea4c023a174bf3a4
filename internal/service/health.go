package service

import (
	"context"
	"time"
)

// Pinger is a dependency that can be probed for reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// Configurable reports whether a dependency has credentials
type Configurable interface {
	IsConfigured() bool
}

// HealthReport is the body of the health endpoint
type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]bool   `json:"services"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthService reports which backends are configured and, on request, reachable
type HealthService struct {
	generation   Configurable
	storage      Pinger
	rateLimiter  Pinger
	probeTimeout time.Duration
}

// NewHealthService creates a health service. Nil dependencies are reported as unconfigured.
func NewHealthService(generation Configurable, storage, rateLimiter Pinger) *HealthService {
	return &HealthService{
		generation:   generation,
		storage:      storage,
		rateLimiter:  rateLimiter,
		probeTimeout: 5 * time.Second,
	}
}

// Check builds a report. When detailed is set, the storage and rate limiter
// backends are actively pinged.
func (h *HealthService) Check(ctx context.Context, detailed bool) HealthReport {
	report := HealthReport{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Services: map[string]bool{
			"generation":  h.generation != nil && h.generation.IsConfigured(),
			"storage":     h.storage != nil,
			"rateLimiter": h.rateLimiter != nil,
		},
	}

	if !detailed {
		return report
	}

	report.Checks = map[string]string{}
	for name, dep := range map[string]Pinger{"storage": h.storage, "rateLimiter": h.rateLimiter} {
		if dep == nil {
			report.Checks[name] = "not configured"
			continue
		}
		if err := h.ping(ctx, dep); err != nil {
			report.Checks[name] = "error: unreachable"
			report.Status = "degraded"
			continue
		}
		report.Checks[name] = "ok"
	}

	return report
}

func (h *HealthService) ping(ctx context.Context, dep Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, h.probeTimeout)
	defer cancel()
	return dep.Ping(ctx)
}
