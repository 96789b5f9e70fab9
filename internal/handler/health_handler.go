package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sidupak-api/internal/config"
	"github.com/noah-isme/sidupak-api/internal/utils"
)

const healthProbeTimeout = 2 * time.Second

// HealthProbe checks one backing service.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Service       string            `json:"service"`
	Environment   string            `json:"environment"`
	StorageDriver string            `json:"storageDriver"`
	Checks        map[string]string `json:"checks,omitempty"`
}

// HealthCheck returns a handler that reports application health information.
// Any failing probe turns the response into a 503 with status "degraded".
func HealthCheck(cfg config.Config, probes ...HealthProbe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:        "ok",
			Timestamp:     time.Now().UTC(),
			Service:       cfg.AppName,
			Environment:   cfg.AppEnv,
			StorageDriver: cfg.StorageDriver,
		}

		if len(probes) > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), healthProbeTimeout)
			defer cancel()

			payload.Checks = make(map[string]string, len(probes))
			for _, probe := range probes {
				if err := probe.Check(ctx); err != nil {
					payload.Checks[probe.Name] = "unavailable"
					payload.Status = "degraded"
					continue
				}
				payload.Checks[probe.Name] = "ok"
			}
		}

		if payload.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
				Success: false,
				Data:    payload,
				Message: "service degraded",
			})
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
