package services

import (
	"context"
	"sync"
	"time"

	"purehill-revenue/models"
	"purehill-revenue/storage"
	"purehill-revenue/utils"
)

// RefreshHook observes every rebuild attempt. snap is nil when the attempt failed.
type RefreshHook func(snap *models.Snapshot, err error)

// SnapshotCache owns the current snapshot and rebuilds it from the source once it is older than the TTL.
// A failed rebuild never replaces the current snapshot. At most one rebuild runs at a time and readers
// keep getting the current snapshot while it does.
type SnapshotCache struct {
	mu          sync.Mutex
	source      storage.RawSource
	normalizer  *Normalizer
	ttl         time.Duration
	now         func() time.Time
	logger      *utils.Logger
	hooks       []RefreshHook
	current     *models.Snapshot
	lastErr     error
	refreshedAt time.Time
	attemptedAt time.Time
	building    chan struct{} // closed when the in-flight rebuild finishes
}

// NewSnapshotCache creates an empty cache; the first GetSnapshot call builds the first snapshot
func NewSnapshotCache(source storage.RawSource, normalizer *Normalizer, ttl time.Duration, logger *utils.Logger) *SnapshotCache {
	return &SnapshotCache{
		source:     source,
		normalizer: normalizer,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// OnRefresh registers a hook run after each rebuild attempt
func (c *SnapshotCache) OnRefresh(hook RefreshHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook)
}

// GetSnapshot returns the current snapshot, rebuilding it first when stale.
// When the source is unavailable the previous snapshot (possibly nil) is returned with the error.
// Callers only wait on a rebuild when there is no snapshot to serve yet.
func (c *SnapshotCache) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	c.mu.Lock()
	if c.building != nil {
		if c.current == nil {
			return c.waitLocked(ctx)
		}
		snap, err := c.current, c.lastErr
		c.mu.Unlock()
		return snap, err
	}
	stale := c.attemptedAt.IsZero() || c.now().Sub(c.attemptedAt) >= c.ttl
	if !stale {
		snap, err := c.current, c.lastErr
		c.mu.Unlock()
		return snap, err
	}
	return c.rebuildLocked(ctx)
}

// Refresh rebuilds the snapshot regardless of its age. If a rebuild is already running its result is returned.
func (c *SnapshotCache) Refresh(ctx context.Context) (*models.Snapshot, error) {
	c.mu.Lock()
	if c.building != nil {
		return c.waitLocked(ctx)
	}
	return c.rebuildLocked(ctx)
}

// LastRefreshed returns when the current snapshot was built, zero if never
func (c *SnapshotCache) LastRefreshed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshedAt
}

// waitLocked must be called with c.mu held; it releases the lock and waits for the in-flight rebuild
func (c *SnapshotCache) waitLocked(ctx context.Context) (*models.Snapshot, error) {
	done := c.building
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.lastErr
}

// rebuildLocked must be called with c.mu held. The lock is released while the source is read
// and again before hooks run.
func (c *SnapshotCache) rebuildLocked(ctx context.Context) (*models.Snapshot, error) {
	done := make(chan struct{})
	c.building = done
	started := c.now()
	c.attemptedAt = started
	c.mu.Unlock()

	// the build is shared with waiting callers, so one caller going away must not abort it
	snap, err := c.normalizer.Build(context.WithoutCancel(ctx), c.source)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err
		if c.current != nil {
			c.logger.Warn("Refresh failed, keeping snapshot %s built at %s: %v",
				c.current.ID, c.refreshedAt.Format(time.RFC3339), err)
		} else {
			c.logger.Error("Refresh failed with no previous snapshot: %v", err)
		}
		snap = nil
	} else {
		c.current = snap
		c.lastErr = nil
		c.refreshedAt = started
		c.logger.Info("Snapshot %s ready: %d observations", snap.ID, len(snap.Observations))
	}
	c.building = nil
	close(done)

	current, lastErr := c.current, c.lastErr
	hooks := append([]RefreshHook(nil), c.hooks...)
	c.mu.Unlock()

	for _, hook := range hooks {
		hook(snap, err)
	}
	return current, lastErr
}
