package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/PlanFox/internal/pkg/cache"
	"github.com/ManuelReschke/PlanFox/internal/pkg/database"
	"github.com/ManuelReschke/PlanFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PlanFox/internal/pkg/env"
	"github.com/ManuelReschke/PlanFox/internal/pkg/marketsync"
	"github.com/ManuelReschke/PlanFox/internal/pkg/router"
)

func main() {
	app, syncManager := NewApplication()
	syncManager.Start()

	// Cooperative shutdown: let an in-flight sync iteration finish, then stop
	// serving.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutdown signal received")
		syncManager.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}
}

func NewApplication() (*fiber.App, *marketsync.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	service := marketsync.NewServiceFromDB(database.GetDB())
	client := marketsync.NewGitHubClientFromEnv()
	syncManager := marketsync.NewManager(client, service, marketsync.NewCacheStatusRecorder(), syncIntervalFromEnv())

	app := fiber.New(fiber.Config{
		AppName: "PlanFox",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app, service, newPolicyFromEnv())

	return app, syncManager
}

func syncIntervalFromEnv() time.Duration {
	raw := env.GetEnv("MARKETPLACE_SYNC_INTERVAL_MINUTES", "")
	if raw == "" {
		return marketsync.DefaultSyncInterval
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		log.Printf("Invalid MARKETPLACE_SYNC_INTERVAL_MINUTES %q, using default", raw)
		return marketsync.DefaultSyncInterval
	}
	return time.Duration(minutes) * time.Minute
}

func newPolicyFromEnv() *entitlements.Policy {
	ids, err := entitlements.ParsePlanIDList(env.GetEnv("PRIVATE_PLAN_IDS", ""))
	if err != nil {
		log.Printf("Invalid PRIVATE_PLAN_IDS, using defaults: %v", err)
		ids = nil
	}
	if ids == nil {
		return entitlements.NewDefaultPolicy()
	}
	return entitlements.NewPolicy(ids)
}
