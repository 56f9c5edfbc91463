package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/observability"
)

// Pinger is a dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReplicaStatus reports the dashboard read replica's freshness.
type ReplicaStatus interface {
	Status() (time.Time, error)
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    Pinger
	redis       Pinger
	replica     ReplicaStatus
	metrics     *observability.Metrics
}

// HealthDependencies lists what readiness checks. A nil Redis means sessions
// are kept in memory and the check is skipped.
type HealthDependencies struct {
	Postgres Pinger
	Redis    Pinger
	Replica  ReplicaStatus
	Metrics  *observability.Metrics
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, deps HealthDependencies) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		postgres:    deps.Postgres,
		redis:       deps.Redis,
		replica:     deps.Replica,
		metrics:     deps.Metrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if h.postgres == nil {
		depStatus["postgres"] = "not configured"
		ready = false
	} else if err := h.postgres.Ping(ctx); err != nil {
		depStatus["postgres"] = err.Error()
		ready = false
	} else {
		depStatus["postgres"] = "ok"
	}

	if h.redis == nil {
		depStatus["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx); err != nil {
		depStatus["redis"] = err.Error()
		ready = false
	} else {
		depStatus["redis"] = "ok"
	}

	if h.replica != nil {
		loadedAt, err := h.replica.Status()
		replica := fiber.Map{"loaded": !loadedAt.IsZero()}
		if !loadedAt.IsZero() {
			replica["loadedAt"] = loadedAt
		}
		if err != nil {
			replica["lastError"] = err.Error()
		}
		depStatus["replica"] = replica
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "STORE_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Metrics returns the in-memory request counters.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
