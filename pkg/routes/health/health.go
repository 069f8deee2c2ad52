package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// Checker reports whether the directory API and its backing stores are
// usable. Postgres is mandatory; Redis only exists when claim rate limiting
// is enabled, so a nil pinger simply drops that check.
type Checker struct {
	db        *sqlx.DB
	redis     interface{ Ping() error }
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a new health checker
func NewChecker(db *sqlx.DB, redis interface{ Ping() error }, version string) *Checker {
	return &Checker{
		db:        db,
		redis:     redis,
		version:   version,
		startTime: time.Now(),
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// Report is the health endpoint response
type Report struct {
	Status       string                       `json:"status"` // ok | degraded
	Version      string                       `json:"version"`
	Uptime       string                       `json:"uptime"`
	Dependencies map[string]*DependencyStatus `json:"dependencies"`
	CheckedAt    time.Time                    `json:"checked_at"`
}

// DependencyStatus is the outcome of pinging one backing store
type DependencyStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

func pingDependency(ping func() error) *DependencyStatus {
	start := time.Now()
	if err := ping(); err != nil {
		return &DependencyStatus{Healthy: false, Error: err.Error()}
	}
	return &DependencyStatus{Healthy: true, Latency: time.Since(start).String()}
}

// Health pings every configured backing store and reports the aggregate.
// Any failing dependency degrades the service and the endpoint returns 503.
func (c *Checker) Health(ctx echo.Context) error {
	report := &Report{
		Status:       "ok",
		Version:      c.version,
		Uptime:       time.Since(c.startTime).Round(time.Second).String(),
		Dependencies: make(map[string]*DependencyStatus),
		CheckedAt:    time.Now(),
	}

	if c.db != nil {
		report.Dependencies["postgres"] = pingDependency(c.db.Ping)
	} else {
		report.Dependencies["postgres"] = &DependencyStatus{Healthy: false, Error: "database not configured"}
	}

	if c.redis != nil {
		report.Dependencies["redis"] = pingDependency(c.redis.Ping)
	}

	httpStatus := http.StatusOK
	for _, dep := range report.Dependencies {
		if !dep.Healthy {
			report.Status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	return ctx.JSON(httpStatus, report)
}

// Live returns the liveness status (is the service running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready returns the readiness status (is the service ready to accept traffic)
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
