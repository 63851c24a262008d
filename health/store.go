package health

import (
	"context"
	"fmt"

	"github.com/ahump20/espn-fantasy-proxy/cache"
)

// StoreCheckerConfig configures the cache store health checker.
type StoreCheckerConfig struct {
	// WarnEntries is the entry count past which the store is reported
	// degraded. The store has no eviction, so a runaway count means the
	// key space is unbounded (e.g. querystring abuse). Default: 10000.
	WarnEntries int
}

// StoreChecker reports on the response cache. The store is never
// unhealthy; it only degrades when it grows past the warning bound.
type StoreChecker struct {
	store  cache.Store
	config StoreCheckerConfig
}

// NewStoreChecker creates a health checker for the given store.
func NewStoreChecker(store cache.Store, config ...StoreCheckerConfig) *StoreChecker {
	cfg := StoreCheckerConfig{WarnEntries: 10000}
	if len(config) > 0 && config[0].WarnEntries > 0 {
		cfg = config[0]
	}
	return &StoreChecker{store: store, config: cfg}
}

// Name returns the name of this checker.
func (c *StoreChecker) Name() string {
	return "cache"
}

// Check reports the store's entry count against the warning bound.
func (c *StoreChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	entries := c.store.Len()
	details := map[string]any{
		"entries":      entries,
		"warn_entries": c.config.WarnEntries,
	}

	if entries >= c.config.WarnEntries {
		return Degraded(
			fmt.Sprintf("cache holds %d entries, past warning bound %d", entries, c.config.WarnEntries),
		).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("cache holds %d entries", entries)).WithDetails(details)
}
