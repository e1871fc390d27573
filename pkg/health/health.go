// Package health runs registered dependency probes concurrently and serves
// the aggregate as liveness and readiness endpoints. A failing critical
// probe makes the service unready; a failing optional probe only degrades it.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes a single dependency.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

type registration struct {
	check    Check
	critical bool
}

type Checker struct {
	checks map[string]registration
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]registration),
		logger: slog.Default().With("component", "health"),
	}
}

// Register adds a critical check.
func (c *Checker) Register(name string, check Check) {
	c.add(name, check, true)
}

// RegisterOptional adds a check whose failure degrades but does not fail
// readiness.
func (c *Checker) RegisterOptional(name string, check Check) {
	c.add(name, check, false)
}

func (c *Checker) add(name string, check Check, critical bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registration{check: check, critical: critical}
}

// Run executes every check concurrently.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]registration, len(c.checks))
	for name, reg := range c.checks {
		checks[name] = reg
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, reg := range checks {
		wg.Add(1)
		go func(n string, reg registration) {
			defer wg.Done()
			start := time.Now()
			result := reg.check(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()

			mu.Lock()
			defer mu.Unlock()
			report.Components[n] = result
			if result.Status == StatusUp {
				return
			}
			if reg.critical && result.Status == StatusDown {
				report.Status = StatusDown
			} else if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}(name, reg)
	}
	wg.Wait()

	if report.Status != StatusUp {
		c.logger.Warn("health check not up", "status", report.Status)
	}
	return report
}

// PingCheck adapts an error-returning probe into a Check.
func PingCheck(ping func(ctx context.Context) error) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// ConditionCheck reports up while ok returns true and down with message
// otherwise.
func ConditionCheck(ok func() bool, message string) Check {
	return func(ctx context.Context) ComponentHealth {
		if !ok() {
			return ComponentHealth{Status: StatusDown, Message: message}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 503 only when a critical check is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write health response", "error", err)
	}
}
