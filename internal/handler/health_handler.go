package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/config"
	"github.com/noah-isme/art-exam-api/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheckFunc checks one backing dependency.
type HealthCheckFunc func(ctx context.Context) error

// DependencyStatus is the outcome of one dependency check.
type DependencyStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string             `json:"status"`
	Timestamp     time.Time          `json:"timestamp"`
	Service       string             `json:"service"`
	Environment   string             `json:"environment"`
	StorageDriver string             `json:"storage_driver"`
	Uptime        string             `json:"uptime"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// HealthHandler reports liveness together with the state of the database,
// cache and broker connections.
type HealthHandler struct {
	cfg     config.Config
	checks  map[string]HealthCheckFunc
	started time.Time
	logger  zerolog.Logger
}

// NewHealthHandler constructs the handler. checks may be empty.
func NewHealthHandler(cfg config.Config, checks map[string]HealthCheckFunc, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:     cfg,
		checks:  checks,
		started: time.Now(),
		logger:  logger.With().Str("component", "health_handler").Logger(),
	}
}

// Register attaches the health route.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.health)
}

func (h *HealthHandler) health(c *fiber.Ctx) error {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	payload := HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now().UTC(),
		Service:       h.cfg.AppName,
		Environment:   h.cfg.AppEnv,
		StorageDriver: h.cfg.StorageDriver,
		Uptime:        time.Since(h.started).Round(time.Second).String(),
		Dependencies:  make([]DependencyStatus, 0, len(names)),
	}

	for _, name := range names {
		status := DependencyStatus{Name: name, Healthy: true}
		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			status.Healthy = false
			status.Error = err.Error()
			payload.Status = "degraded"
			h.logger.Warn().Err(err).Str("dependency", name).Msg("health check failed")
		}
		payload.Dependencies = append(payload.Dependencies, status)
	}

	if payload.Status != "ok" {
		return utils.Fail(c, fiber.StatusServiceUnavailable, "service degraded", payload)
	}
	return utils.SendSuccess(c, "service healthy", payload)
}
