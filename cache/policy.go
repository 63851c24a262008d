package cache

import "time"

// Policy configures caching durations.
type Policy struct {
	// DefaultTTL is the freshness window used when a route supplies none.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Route overrides are clamped to it.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 10 minutes, MaxTTL: 1 hour.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: 10 * time.Minute,
		MaxTTL:     1 * time.Hour,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
