package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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

// Service coordinates health checks.
type Service struct {
	checks map[string]Pinger
}

// New creates a Service with no checks.
func New() *Service {
	return &Service{checks: make(map[string]Pinger)}
}

// With registers a named check. A nil pinger is ignored so optional
// dependencies can be passed unconditionally.
func (s *Service) With(name string, p Pinger) *Service {
	if p != nil {
		s.checks[name] = p
	}
	return s
}

// Names returns the registered check names in order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for n := range s.checks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Check runs every registered check. All failing is Unhealthy, some failing is Degraded.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checks))
	failed := 0

	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			checks[name] = CheckError
			failed++
		} else {
			checks[name] = CheckOK
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
