package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/claude/gymlog/internal/models"
	"github.com/dgraph-io/ristretto/v2"
)

// PlanCache is an in-process cache of plans keyed by owner and plan ID.
// Plans are stored encoded so callers never share a mutable value.
//
// Each key carries a generation bumped by Invalidate. A fill started before an
// invalidation is discarded, so a stale read never outlives the update.
type PlanCache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

// NewPlanCache creates a plan cache bounded to maxCostBytes of encoded plans.
func NewPlanCache(maxCostBytes int64, ttl time.Duration) (*PlanCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(maxCostBytes/100*10, 1000), // ~10x expected items
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating plan cache: %w", err)
	}
	return &PlanCache{c: c, ttl: ttl, gens: map[string]uint64{}}, nil
}

func planKey(userID int, planID int64) string {
	return fmt.Sprintf("%d:%d", userID, planID)
}

// Get returns a private copy of the cached plan, if present.
func (pc *PlanCache) Get(userID int, planID int64) (*models.Plan, bool) {
	if pc == nil {
		return nil, false
	}
	data, ok := pc.c.Get(planKey(userID, planID))
	if !ok {
		return nil, false
	}
	var p models.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Generation returns the invalidation count of a key. Read it before loading
// the plan and pass it to Fill.
func (pc *PlanCache) Generation(userID int, planID int64) uint64 {
	if pc == nil {
		return 0
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.gens[planKey(userID, planID)]
}

// Fill caches p unless its key was invalidated since gen was read.
// Reports whether the write was offered to the cache.
func (pc *PlanCache) Fill(p *models.Plan, gen uint64) bool {
	if pc == nil || p == nil {
		return false
	}
	data, err := json.Marshal(p)
	if err != nil {
		return false
	}
	key := planKey(p.UserID, p.ID)
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.gens[key] != gen {
		return false
	}
	pc.c.SetWithTTL(key, data, int64(len(data)), pc.ttl)
	return true
}

// Invalidate drops a plan after it was changed or deleted.
func (pc *PlanCache) Invalidate(userID int, planID int64) {
	if pc == nil {
		return
	}
	key := planKey(userID, planID)
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.gens[key]++
	pc.c.Del(key)
}

// Wait blocks until pending writes are applied.
func (pc *PlanCache) Wait() {
	if pc != nil {
		pc.c.Wait()
	}
}

// Close shuts down the cache and releases resources.
func (pc *PlanCache) Close() {
	if pc != nil {
		pc.c.Close()
	}
}
