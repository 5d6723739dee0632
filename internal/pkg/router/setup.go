package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PlanFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PlanFox/internal/pkg/marketsync"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App, service *marketsync.Service, policy *entitlements.Policy) {
	setup(app, NewApiRouter(service, policy))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
