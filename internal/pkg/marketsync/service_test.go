package marketsync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/PlanFox/app/models"
)

// fakeRepository is an in-memory Repository used to exercise the sync service
// without a database.
type fakeRepository struct {
	nextPlanID    uint
	nextAccountID uint
	plans         map[int64]*models.Plan    // keyed by external ID
	accounts      map[int64]*models.Account // keyed by external ID

	upsertPlanErr    error
	upsertAccountErr error
	deleteErr        error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		plans:    make(map[int64]*models.Plan),
		accounts: make(map[int64]*models.Account),
	}
}

func (r *fakeRepository) UpsertPlan(plan *models.Plan) error {
	if r.upsertPlanErr != nil {
		return r.upsertPlanErr
	}
	if existing, ok := r.plans[plan.ExternalID]; ok {
		existing.Name = plan.Name
		existing.Description = plan.Description
		*plan = *existing
		return nil
	}
	r.nextPlanID++
	plan.ID = r.nextPlanID
	stored := *plan
	r.plans[plan.ExternalID] = &stored
	return nil
}

func (r *fakeRepository) UpsertAccount(account *models.Account) error {
	if r.upsertAccountErr != nil {
		return r.upsertAccountErr
	}
	if existing, ok := r.accounts[account.ExternalID]; ok {
		existing.Login = account.Login
		existing.PlanID = account.PlanID
		*account = *existing
		return nil
	}
	r.nextAccountID++
	account.ID = r.nextAccountID
	stored := *account
	r.accounts[account.ExternalID] = &stored
	return nil
}

func (r *fakeRepository) GetOrCreateDiscountPlan() (*models.Plan, error) {
	if existing, ok := r.plans[models.DiscountPlanExternalID]; ok {
		plan := *existing
		return &plan, nil
	}
	plan := &models.Plan{
		ExternalID:  models.DiscountPlanExternalID,
		Name:        models.DiscountPlanName,
		Description: models.DiscountPlanDescription,
	}
	if err := r.UpsertPlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *fakeRepository) DeleteAccountsNotIn(keepIDs []uint, protectedPlanID uint) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	keep := make(map[uint]struct{}, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = struct{}{}
	}
	var deleted int64
	for externalID, account := range r.accounts {
		if account.PlanID == protectedPlanID {
			continue
		}
		if _, ok := keep[account.ID]; ok {
			continue
		}
		delete(r.accounts, externalID)
		deleted++
	}
	return deleted, nil
}

func (r *fakeRepository) GetAccountByLogin(login string) (*models.Account, error) {
	for _, account := range r.accounts {
		if account.Login == login {
			found := *account
			for _, plan := range r.plans {
				if plan.ID == found.PlanID {
					found.Plan = *plan
					break
				}
			}
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepository) CountPlans() (int64, error) {
	return int64(len(r.plans)), nil
}

func (r *fakeRepository) CountAccounts() (int64, error) {
	return int64(len(r.accounts)), nil
}

func TestSyncPlanIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	remote := RemotePlan{ID: 14, Name: "Developer", Description: "One private repo"}

	first, err := svc.SyncPlan(context.Background(), remote)
	require.NoError(t, err)
	second, err := svc.SyncPlan(context.Background(), remote)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	count, _ := repo.CountPlans()
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "Developer", repo.plans[14].Name)
}

func TestSyncPlanUpdatesInPlace(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	first, err := svc.SyncPlan(context.Background(), RemotePlan{ID: 14, Name: "Developer", Description: "old"})
	require.NoError(t, err)
	second, err := svc.SyncPlan(context.Background(), RemotePlan{ID: 14, Name: "Developer Pro", Description: "new"})
	require.NoError(t, err)

	assert.Equal(t, first, second, "local identity must be stable across updates")
	count, _ := repo.CountPlans()
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "Developer Pro", repo.plans[14].Name)
	assert.Equal(t, "new", repo.plans[14].Description)
}

func TestSyncPlanRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepository())

	_, err := svc.SyncPlan(context.Background(), RemotePlan{ID: -1, Name: "x"})
	assert.Error(t, err)

	_, err = svc.SyncPlan(context.Background(), RemotePlan{ID: 5, Name: "  "})
	assert.Error(t, err)
}

func TestSyncAccountPlanMigration(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	planA, err := svc.SyncPlan(ctx, RemotePlan{ID: 14, Name: "Developer"})
	require.NoError(t, err)
	planB, err := svc.SyncPlan(ctx, RemotePlan{ID: 179, Name: "Team"})
	require.NoError(t, err)

	remote := RemoteAccount{ID: 42, Login: "octocat"}
	first, err := svc.SyncAccount(ctx, planA, remote)
	require.NoError(t, err)
	second, err := svc.SyncAccount(ctx, planB, remote)
	require.NoError(t, err)

	assert.Equal(t, first, second, "no duplicate account on plan migration")
	count, _ := repo.CountAccounts()
	assert.Equal(t, int64(1), count)
	assert.Equal(t, planB, repo.accounts[42].PlanID)
}

func TestSyncAccountRefreshesLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	planID, err := svc.SyncPlan(ctx, RemotePlan{ID: 14, Name: "Developer"})
	require.NoError(t, err)

	_, err = svc.SyncAccount(ctx, planID, RemoteAccount{ID: 42, Login: "octocat"})
	require.NoError(t, err)
	_, err = svc.SyncAccount(ctx, planID, RemoteAccount{ID: 42, Login: "octocat-renamed"})
	require.NoError(t, err)

	assert.Equal(t, "octocat-renamed", repo.accounts[42].Login)
}

func TestSyncAccountRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	_, err := svc.SyncAccount(ctx, 0, RemoteAccount{ID: 42, Login: "octocat"})
	assert.Error(t, err)

	_, err = svc.SyncAccount(ctx, 1, RemoteAccount{ID: 0, Login: "octocat"})
	assert.Error(t, err)
}

func TestDeleteUnsyncedPrunesOnlyStaleUnprotectedAccounts(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	planX, err := svc.SyncPlan(ctx, RemotePlan{ID: 14, Name: "Developer"})
	require.NoError(t, err)
	protected, err := repo.GetOrCreateDiscountPlan()
	require.NoError(t, err)

	a1, err := svc.SyncAccount(ctx, planX, RemoteAccount{ID: 1, Login: "kept"})
	require.NoError(t, err)
	_, err = svc.SyncAccount(ctx, planX, RemoteAccount{ID: 2, Login: "stale"})
	require.NoError(t, err)
	_, err = svc.SyncAccount(ctx, protected.ID, RemoteAccount{ID: 3, Login: "manual-grant"})
	require.NoError(t, err)

	deleted, err := svc.DeleteUnsynced(ctx, map[uint]struct{}{a1: {}})
	require.NoError(t, err)

	assert.Equal(t, int64(1), deleted)
	assert.Contains(t, repo.accounts, int64(1), "synchronized account must survive")
	assert.NotContains(t, repo.accounts, int64(2), "stale account must be pruned")
	assert.Contains(t, repo.accounts, int64(3), "protected plan member must survive")
}

func TestDeleteUnsyncedIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	planX, err := svc.SyncPlan(ctx, RemotePlan{ID: 14, Name: "Developer"})
	require.NoError(t, err)
	a1, err := svc.SyncAccount(ctx, planX, RemoteAccount{ID: 1, Login: "kept"})
	require.NoError(t, err)
	_, err = svc.SyncAccount(ctx, planX, RemoteAccount{ID: 2, Login: "stale"})
	require.NoError(t, err)

	synced := map[uint]struct{}{a1: {}}
	first, err := svc.DeleteUnsynced(ctx, synced)
	require.NoError(t, err)
	second, err := svc.DeleteUnsynced(ctx, synced)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(0), second, "second prune with the same set must be a no-op")
}

func TestDeleteUnsyncedEmptySetKeepsProtectedAccounts(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	protected, err := repo.GetOrCreateDiscountPlan()
	require.NoError(t, err)
	_, err = svc.SyncAccount(ctx, protected.ID, RemoteAccount{ID: 3, Login: "manual-grant"})
	require.NoError(t, err)

	deleted, err := svc.DeleteUnsynced(ctx, map[uint]struct{}{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), deleted)
	assert.Contains(t, repo.accounts, int64(3))
}

func TestDiscountPlanBootstrapIsIdempotent(t *testing.T) {
	repo := newFakeRepository()

	first, err := repo.GetOrCreateDiscountPlan()
	require.NoError(t, err)
	second, err := repo.GetOrCreateDiscountPlan()
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.DiscountPlanExternalID, first.ExternalID)
	assert.Equal(t, models.DiscountPlanName, first.Name)
	count, _ := repo.CountPlans()
	assert.Equal(t, int64(1), count)
}

func TestServicePropagatesStorageFailures(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ctx := context.Background()

	repo.upsertPlanErr = errors.New("storage down")
	_, err := svc.SyncPlan(ctx, RemotePlan{ID: 14, Name: "Developer"})
	assert.ErrorContains(t, err, "storage down")

	repo.upsertPlanErr = nil
	repo.upsertAccountErr = errors.New("storage down")
	planID, err := svc.SyncPlan(ctx, RemotePlan{ID: 14, Name: "Developer"})
	require.NoError(t, err)
	_, err = svc.SyncAccount(ctx, planID, RemoteAccount{ID: 42, Login: "octocat"})
	assert.ErrorContains(t, err, "storage down")
}
