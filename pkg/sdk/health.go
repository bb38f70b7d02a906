package kwsearch

import (
	"context"
	"errors"
	"sort"
	"time"

	healthuc "github.com/kailas-cloud/kwsearch/internal/usecase/health"
)

// HealthStatus is the state of the backing store as seen by the client.
type HealthStatus struct {
	Status string            // "ok", "degraded" or "error"
	Checks map[string]string // component name -> "ok" | "error"
}

// OK reports whether every component answered.
func (h HealthStatus) OK() bool { return h.Status == string(healthuc.Healthy) }

// Failing lists the components whose check failed, sorted by name.
func (h HealthStatus) Failing() []string {
	var out []string
	for name, res := range h.Checks {
		if res != string(healthuc.CheckOK) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Health pings the registry and query stores.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	h := HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}

	var err error
	if !h.OK() {
		err = errUnhealthy
	}
	c.obs.observe("health", start, err)
	return h
}

var errUnhealthy = errors.New("store unhealthy")

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
