package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanFox/app/models"
	"github.com/ManuelReschke/PlanFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/PlanFox/internal/pkg/marketsync"
)

// Pong is the ping endpoint response body.
type Pong struct {
	Ping string `json:"ping"`
}

// APIServer serves the read-side API: entitlement checks against the mirrored
// catalog and sync loop status.
type APIServer struct {
	service *marketsync.Service
	policy  *entitlements.Policy
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(service *marketsync.Service, policy *entitlements.Policy) *APIServer {
	return &APIServer{
		service: service,
		policy:  policy,
	}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetEntitlementCheck decides whether an action on a repository is allowed,
// based on repository visibility and the owner's mirrored plan.
func (s *APIServer) GetEntitlementCheck(c *fiber.Ctx) error {
	owner := c.Query("owner")
	if owner == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "owner query parameter is required",
		})
	}
	repo := entitlements.Repo{
		OwnerLogin: owner,
		Private:    c.QueryBool("private"),
	}

	var plan *models.Plan
	account, err := s.service.GetAccountByLogin(c.Context(), owner)
	switch {
	case err == nil:
		plan = &account.Plan
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No subscription on record; the decision table handles this case.
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "account lookup failed",
		})
	}

	result := s.policy.Evaluate(repo, plan)
	body := fiber.Map{
		"owner":   owner,
		"private": repo.Private,
		"allowed": result.Allowed,
	}
	if !result.Allowed {
		body["reason"] = result.Reason
	}
	return c.Status(fiber.StatusOK).JSON(body)
}

// GetSyncStatus returns the outcome of the most recent sync iteration.
func (s *APIServer) GetSyncStatus(c *fiber.Ctx) error {
	status, err := marketsync.LoadLastIterationStatus()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"synced": false})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_error",
			"message": "sync status lookup failed",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"synced": true,
		"status": status,
	})
}
