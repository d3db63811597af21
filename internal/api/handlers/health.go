package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eventpro/server/internal/metrics"
)

// HealthCheck is the /api/health body. status and timestamp are the
// documented contract; the rest is operator detail.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	GitCommit string                 `json:"git_commit,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// HealthStore is the part of the store the health endpoint needs.
type HealthStore interface {
	Driver() string
	Ping(ctx context.Context) error
}

// migrationReporter is implemented by stores with a versioned schema.
type migrationReporter interface {
	MigrationState(ctx context.Context) (version int64, dirty bool, err error)
}

// OrphanReporter hands out the latest count of registrations left behind
// by a failed cascade. Reading it must not touch the store.
type OrphanReporter interface {
	Last() (metrics.OrphanReading, bool)
}

type HealthChecker struct {
	store     HealthStore
	orphans   OrphanReporter
	version   string
	gitCommit string
	now       func() time.Time
}

func NewHealthChecker(store HealthStore, orphans OrphanReporter, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		orphans:   orphans,
		version:   version,
		gitCommit: gitCommit,
		now:       time.Now,
	}
}

// Health reports "healthy" unless a check fails. Warnings, such as orphaned
// registrations, show up in checks without changing the overall status.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, HealthCheck{
				Status:    "shutting_down",
				Timestamp: h.timestamp(),
			})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database": h.checkDatabase(ctx),
		}
		if reporter, ok := h.store.(migrationReporter); ok {
			checks["migrations"] = h.checkMigrations(ctx, reporter)
		}
		if h.orphans != nil {
			checks["registrations"] = h.checkOrphans()
		}

		overall := "healthy"
		statusCode := http.StatusOK
		for name, check := range checks {
			metrics.HealthCheckStatus.WithLabelValues(name).Set(checkGaugeValue(check.Status))
			if check.Status == checkFail {
				overall = "unhealthy"
				statusCode = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, statusCode, HealthCheck{
			Status:    overall,
			Timestamp: h.timestamp(),
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
		})
	}
}

func checkGaugeValue(status string) float64 {
	switch status {
	case checkPass:
		return 2
	case checkWarn:
		return 1
	default:
		return 0
	}
}

func (h *HealthChecker) timestamp() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: checkFail, Message: "Store not initialized"}
	}

	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := h.store.Ping(pingCtx)
	latency := time.Since(start).Milliseconds()
	details := map[string]any{"driver": h.store.Driver()}

	if err != nil {
		message := "Store ping failed"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "Store ping timed out after 2 seconds"
		}
		details["error"] = err.Error()
		return CheckResult{Status: checkFail, Message: message, LatencyMs: latency, Details: details}
	}

	return CheckResult{Status: checkPass, Message: "Store reachable", LatencyMs: latency, Details: details}
}

func (h *HealthChecker) checkMigrations(ctx context.Context, reporter migrationReporter) CheckResult {
	start := time.Now()
	migCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	version, dirty, err := reporter.MigrationState(migCtx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return CheckResult{
			Status:    checkFail,
			Message:   "Failed to query migration version",
			LatencyMs: latency,
			Details: map[string]any{
				"error":       err.Error(),
				"remediation": "Run: server migrate up",
			},
		}
	}
	if dirty {
		return CheckResult{
			Status:    checkFail,
			Message:   "Database in dirty migration state - manual intervention required",
			LatencyMs: latency,
			Details:   map[string]any{"version": version, "dirty": true},
		}
	}

	return CheckResult{
		Status:    checkPass,
		Message:   fmt.Sprintf("Migrations applied (version %d)", version),
		LatencyMs: latency,
		Details:   map[string]any{"version": version},
	}
}

// checkOrphans reports the background sampler's last reading.
func (h *HealthChecker) checkOrphans() CheckResult {
	reading, ok := h.orphans.Last()
	if !ok {
		return CheckResult{Status: checkPass, Message: "Orphaned registrations not sampled yet"}
	}

	sampledAt := reading.SampledAt.UTC().Format(time.RFC3339)
	if reading.Err != nil {
		return CheckResult{
			Status:  checkWarn,
			Message: "Could not count orphaned registrations",
			Details: map[string]any{"error": reading.Err.Error(), "sampled_at": sampledAt},
		}
	}
	if reading.Count > 0 {
		return CheckResult{
			Status:  checkWarn,
			Message: fmt.Sprintf("%d registrations reference deleted events", reading.Count),
			Details: map[string]any{"orphaned": reading.Count, "sampled_at": sampledAt},
		}
	}
	return CheckResult{Status: checkPass, Details: map[string]any{"orphaned": 0, "sampled_at": sampledAt}}
}
