package entitlements

import (
	"strconv"
	"strings"

	"github.com/ManuelReschke/PlanFox/app/models"
)

// Reason classifies why an action on a repository was forbidden.
type Reason string

const (
	// ReasonPlanNotFound means the repository owner has no subscription at all.
	ReasonPlanNotFound Reason = "plan_not_found"
	// ReasonPlanPublicOnly means the owner's plan does not cover private repositories.
	ReasonPlanPublicOnly Reason = "plan_public_only"
)

// Result is the outcome of an entitlement check.
type Result struct {
	Allowed bool
	Reason  Reason
}

// Repo carries the repository attributes an entitlement check depends on.
// It is a read-only input owned by the caller.
type Repo struct {
	OwnerLogin string
	Private    bool
}

// DefaultPrivatePlanIDs is the set of external plan IDs entitled to private
// repository use: the manually managed discount plan plus the paid
// marketplace tiers. The set is exact-match configuration, not derived data;
// extend it here (or via PRIVATE_PLAN_IDS) when a new paid tier is listed.
var DefaultPrivatePlanIDs = []int64{
	models.DiscountPlanExternalID,
	9,   // Bootstrap (legacy paid tier)
	14,  // Developer
	179, // Team
}

// Policy decides whether a repository action is allowed based on the owner's
// current plan. It is a pure decision table; plan lookups happen before the
// call.
type Policy struct {
	privatePlanIDs map[int64]struct{}
}

// NewPolicy creates a policy from the given allow-list of external plan IDs.
func NewPolicy(privatePlanIDs []int64) *Policy {
	set := make(map[int64]struct{}, len(privatePlanIDs))
	for _, id := range privatePlanIDs {
		set[id] = struct{}{}
	}
	return &Policy{privatePlanIDs: set}
}

// NewDefaultPolicy creates a policy over DefaultPrivatePlanIDs.
func NewDefaultPolicy() *Policy {
	return NewPolicy(DefaultPrivatePlanIDs)
}

// Evaluate applies the decision table. plan is the repository owner's current
// plan, or nil when the owner has no subscription. Public repositories are
// always allowed.
func (p *Policy) Evaluate(repo Repo, plan *models.Plan) Result {
	if !repo.Private {
		return Result{Allowed: true}
	}
	if plan == nil {
		return Result{Reason: ReasonPlanNotFound}
	}
	if _, ok := p.privatePlanIDs[plan.ExternalID]; !ok {
		return Result{Reason: ReasonPlanPublicOnly}
	}
	return Result{Allowed: true}
}

// ParsePlanIDList parses a comma-separated list of external plan IDs, e.g.
// the PRIVATE_PLAN_IDS environment value. Empty input yields nil so callers
// can fall back to the default set.
func ParsePlanIDList(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
