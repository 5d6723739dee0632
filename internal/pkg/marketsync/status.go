package marketsync

import (
	"encoding/json"
	"time"

	"github.com/ManuelReschke/PlanFox/internal/pkg/cache"
	"github.com/gofiber/fiber/v2/log"
)

const statusCacheKey = "planfox:sync:last_iteration"

// IterationStatus summarizes one completed (or failed) sync iteration.
type IterationStatus struct {
	IterationID  string    `json:"iteration_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	PlanCount    int       `json:"plan_count"`
	AccountCount int       `json:"account_count"`
	PrunedCount  int64     `json:"pruned_count"`
	Error        string    `json:"error,omitempty"`
}

// StatusRecorder persists the outcome of a sync iteration for observability.
type StatusRecorder interface {
	Record(status IterationStatus)
}

type cacheStatusRecorder struct{}

// NewCacheStatusRecorder creates a recorder that stores the last iteration
// status in the cache. Recording is best-effort; a cache outage never fails
// an iteration.
func NewCacheStatusRecorder() StatusRecorder {
	return &cacheStatusRecorder{}
}

func (r *cacheStatusRecorder) Record(status IterationStatus) {
	payload, err := json.Marshal(status)
	if err != nil {
		log.Errorf("[MarketSync] Failed to marshal iteration status: %v", err)
		return
	}
	if err := cache.Set(statusCacheKey, string(payload), 0); err != nil {
		log.Warnf("[MarketSync] Failed to record iteration status: %v", err)
	}
}

// LoadLastIterationStatus returns the most recently recorded iteration
// status, or nil when none has been recorded yet.
func LoadLastIterationStatus() (*IterationStatus, error) {
	raw, err := cache.Get(statusCacheKey)
	if err != nil {
		return nil, err
	}
	var status IterationStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, err
	}
	return &status, nil
}
