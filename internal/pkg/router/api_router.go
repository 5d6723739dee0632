package router

import (
	apiv1 "github.com/ManuelReschke/PlanFox/internal/api/v1"
	"github.com/ManuelReschke/PlanFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PlanFox/internal/pkg/marketsync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
	service *marketsync.Service
	policy  *entitlements.Policy
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer(h.service, h.policy)
	v1.Get("/ping", apiServer.GetPing)
	v1.Get("/entitlements/check", apiServer.GetEntitlementCheck)
	v1.Get("/sync/status", apiServer.GetSyncStatus)
}

func NewApiRouter(service *marketsync.Service, policy *entitlements.Policy) *ApiRouter {
	return &ApiRouter{service: service, policy: policy}
}
