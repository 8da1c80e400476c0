package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/leadchat-io/leadchat/internal/config"
	"github.com/leadchat-io/leadchat/internal/services"
	"gorm.io/gorm"
)

// HealthHandler handles the health check route
type HealthHandler struct {
	Cfg *config.Config
	DB  *gorm.DB
}

// GetHealth handles GET /healthz
// @Summary Health check
// @Description Report database and completion service reachability
// @Tags Health
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /healthz [get]
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	result := services.HealthCheck(h.Cfg, h.DB)

	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(result)
}
