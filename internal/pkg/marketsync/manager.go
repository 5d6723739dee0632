package marketsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// DefaultSyncInterval is the delay between two catalog sync iterations when
// no interval is configured.
const DefaultSyncInterval = 10 * time.Minute

// Manager drives the catalog sync loop: fetch all plans, reconcile each plan
// and its accounts, prune accounts the remote no longer reports, sleep, and
// repeat until stopped. A failed iteration is logged and retried on the next
// tick; the loop itself never terminates on iteration errors.
type Manager struct {
	client   Client
	service  *Service
	recorder StatusRecorder
	interval time.Duration

	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewManager creates a sync loop manager. recorder may be nil when iteration
// status should not be persisted (e.g. in tests).
func NewManager(client Client, service *Service, recorder StatusRecorder, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Manager{
		client:   client,
		service:  service,
		recorder: recorder,
		interval: interval,
	}
}

// Start launches the background sync worker. Calling Start on a running
// manager is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true

	log.Infof("[MarketSync Manager] Starting catalog sync loop (interval: %s)", m.interval)

	m.ticker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.syncWorker()
}

// Stop signals the sync worker to shut down and waits for it to finish. An
// in-flight iteration is allowed to complete; a signal observed during the
// sleep phase prevents a new iteration from starting.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[MarketSync Manager] Stopping catalog sync loop...")

	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()

	log.Info("[MarketSync Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunSyncOnce runs a single sync iteration outside the loop cadence
// (manual trigger, tests).
func (m *Manager) RunSyncOnce() error {
	return m.runSyncOnce(context.Background())
}

func (m *Manager) syncWorker() {
	defer m.wg.Done()

	stopCh := m.stopCh

	// First iteration runs immediately; afterwards the ticker dictates the
	// cadence regardless of whether an iteration succeeded.
	if err := m.runSyncOnce(context.Background()); err != nil {
		log.Errorf("[MarketSync Manager] Sync iteration failed: %v", err)
	}

	for {
		select {
		case <-stopCh:
			log.Info("[MarketSync Manager] Sync worker stopping")
			return
		case <-m.ticker.C:
			if err := m.runSyncOnce(context.Background()); err != nil {
				log.Errorf("[MarketSync Manager] Sync iteration failed: %v", err)
			}
		}
	}
}

// runSyncOnce performs one full fetch-merge-prune cycle. Any failure aborts
// the iteration at the point of failure; work already committed stays
// committed because every write is an independently durable upsert that the
// next iteration will redo or correct.
func (m *Manager) runSyncOnce(ctx context.Context) error {
	status := IterationStatus{
		IterationID: uuid.NewString(),
		StartedAt:   time.Now(),
	}

	err := m.syncCatalog(ctx, &status)

	status.FinishedAt = time.Now()
	if err != nil {
		status.Error = err.Error()
	}
	if m.recorder != nil {
		m.recorder.Record(status)
	}
	if err != nil {
		return fmt.Errorf("iteration %s: %w", status.IterationID, err)
	}

	log.Infof("[MarketSync] Iteration %s complete: %d plans, %d accounts synced, %d accounts pruned",
		status.IterationID, status.PlanCount, status.AccountCount, status.PrunedCount)
	return nil
}

func (m *Manager) syncCatalog(ctx context.Context, status *IterationStatus) error {
	plans, err := m.client.ListPlans(ctx)
	if err != nil {
		return fmt.Errorf("fetch plans: %w", err)
	}
	status.PlanCount = len(plans)

	// The synchronized set is accumulated across all plans and pruned once at
	// the end of the iteration. Pruning per plan would delete accounts that
	// moved to a plan processed earlier in the same iteration.
	synced := make(map[uint]struct{})
	for _, remotePlan := range plans {
		planID, err := m.service.SyncPlan(ctx, remotePlan)
		if err != nil {
			return fmt.Errorf("reconcile plan %d: %w", remotePlan.ID, err)
		}

		accounts, err := m.client.ListAccountsForPlan(ctx, remotePlan.ID)
		if err != nil {
			return fmt.Errorf("fetch accounts for plan %d: %w", remotePlan.ID, err)
		}

		for _, remoteAccount := range accounts {
			accountID, err := m.service.SyncAccount(ctx, planID, remoteAccount)
			if err != nil {
				return fmt.Errorf("reconcile account %d under plan %d: %w", remoteAccount.ID, remotePlan.ID, err)
			}
			synced[accountID] = struct{}{}
			status.AccountCount++
		}
	}

	pruned, err := m.service.DeleteUnsynced(ctx, synced)
	if err != nil {
		return fmt.Errorf("prune unsynchronized accounts: %w", err)
	}
	status.PrunedCount = pruned

	return nil
}
