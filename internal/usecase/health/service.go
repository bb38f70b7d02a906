package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kwsearch/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Component is a named Pinger, e.g. "database".
type Component struct {
	Name   string
	Pinger Pinger
}

// Service coordinates health checks.
type Service struct {
	components []Component
}

// New creates a Service. Components with a nil Pinger are skipped.
func New(components ...Component) *Service {
	kept := make([]Component, 0, len(components))
	for _, c := range components {
		if c.Pinger != nil {
			kept = append(kept, c)
		}
	}
	return &Service{components: kept}
}

// Check pings every component.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.components))
	failed := 0

	for _, c := range s.components {
		if err := c.Pinger.Ping(ctx); err != nil {
			logger.FromContext(ctx).Warn("health check failed",
				zap.String("component", c.Name), zap.Error(err))
			checks[c.Name] = CheckError
			failed++
			continue
		}
		checks[c.Name] = CheckOK
	}

	status := Healthy
	switch {
	case failed == 0:
	case failed == len(s.components):
		status = Unhealthy
	default:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
