package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all critical components are operational.
	Healthy Status = "ok"
	// Degraded indicates a critical component failed its check.
	Degraded Status = "degraded"
)

// CheckResult is the outcome of one component check.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names used as check keys.
const (
	ComponentCache     = "cache"
	ComponentInference = "inference"
	ComponentIndexTool = "index_tool"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name     string
	critical bool
	run      func(ctx context.Context) error
}

// Service probes the configured components concurrently.
type Service struct {
	checks  []check
	timeout time.Duration
}

// New creates a Service. Nil dependencies are not probed or reported.
// Search keeps working without the index tool, so its failure is reported
// but never degrades the status.
func New(cache CachePinger, inference, indexTool Checker) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	if cache != nil {
		s.checks = append(s.checks, check{ComponentCache, true, cache.Ping})
	}
	if inference != nil {
		s.checks = append(s.checks, check{ComponentInference, true, inference.HealthCheck})
	}
	if indexTool != nil {
		s.checks = append(s.checks, check{ComponentIndexTool, false, indexTool.HealthCheck})
	}
	return s
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs every component check in parallel, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]CheckResult, len(s.checks))
		status = Healthy
	)

	for _, c := range s.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := result(c.run(cctx))

			mu.Lock()
			defer mu.Unlock()
			checks[c.name] = res
			if res == CheckError && c.critical {
				status = Degraded
			}
			return nil
		})
	}
	_ = g.Wait()

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
