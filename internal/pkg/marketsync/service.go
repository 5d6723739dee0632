package marketsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuelReschke/PlanFox/app/models"
	"gorm.io/gorm"
)

// Service reconciles remote marketplace catalog records into local storage.
// Every write is a natural-key upsert, so each operation is independently
// idempotent and safe to redo on the next sync iteration.
type Service struct {
	repo Repository
}

// NewService creates a sync service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a sync service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// SyncPlan upserts one remote plan keyed by its external ID and returns the
// local plan ID. Name and description are refreshed in place when the plan
// already exists.
func (s *Service) SyncPlan(ctx context.Context, remote RemotePlan) (uint, error) {
	_ = ctx
	if remote.ID < 0 {
		return 0, fmt.Errorf("remote plan has negative id %d", remote.ID)
	}
	if strings.TrimSpace(remote.Name) == "" {
		return 0, errors.New("remote plan name is required")
	}

	plan := &models.Plan{
		ExternalID:  remote.ID,
		Name:        remote.Name,
		Description: remote.Description,
	}
	if err := s.repo.UpsertPlan(plan); err != nil {
		return 0, err
	}
	return plan.ID, nil
}

// SyncAccount upserts one remote account keyed by its external ID, linking it
// to the given local plan. An account that moved between plans in the remote
// catalog is re-linked here; the stored login is refreshed to match the
// remote source of truth.
func (s *Service) SyncAccount(ctx context.Context, planID uint, remote RemoteAccount) (uint, error) {
	_ = ctx
	if planID == 0 {
		return 0, errors.New("local plan id is required")
	}
	if remote.ID <= 0 {
		return 0, fmt.Errorf("remote account has invalid id %d", remote.ID)
	}

	account := &models.Account{
		ExternalID: remote.ID,
		Login:      strings.TrimSpace(remote.Login),
		PlanID:     planID,
	}
	if err := s.repo.UpsertAccount(account); err != nil {
		return 0, err
	}
	return account.ID, nil
}

// DeleteUnsynced removes every local account whose ID is not in the
// synchronized set, except accounts under the protected discount plan.
// Discount accounts are granted by hand and never appear in the remote
// catalog, so they must survive every prune pass. Returns the number of
// deleted accounts; running it twice with the same set is a no-op the second
// time.
func (s *Service) DeleteUnsynced(ctx context.Context, syncedIDs map[uint]struct{}) (int64, error) {
	_ = ctx
	discount, err := s.repo.GetOrCreateDiscountPlan()
	if err != nil {
		return 0, fmt.Errorf("resolve discount plan: %w", err)
	}

	keep := make([]uint, 0, len(syncedIDs))
	for id := range syncedIDs {
		keep = append(keep, id)
	}
	return s.repo.DeleteAccountsNotIn(keep, discount.ID)
}

// GetAccountByLogin resolves a repository owner's current account and plan.
// Used by the entitlement check read path; returns gorm.ErrRecordNotFound
// when the owner has no subscription.
func (s *Service) GetAccountByLogin(ctx context.Context, login string) (*models.Account, error) {
	_ = ctx
	l := strings.TrimSpace(login)
	if l == "" {
		return nil, errors.New("login is required")
	}
	return s.repo.GetAccountByLogin(l)
}
