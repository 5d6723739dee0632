package marketsync

import "context"

// Client fetches the remote marketplace catalog. Authentication and transport
// details are the implementation's concern; the sync loop only consumes the
// two read operations below.
type Client interface {
	// ListPlans returns every plan in the remote catalog.
	ListPlans(ctx context.Context) ([]RemotePlan, error)
	// ListAccountsForPlan returns every account currently subscribed to the
	// plan with the given remote plan ID.
	ListAccountsForPlan(ctx context.Context, planID int64) ([]RemoteAccount, error)
}
