package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 2048

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Entry is a cached response payload and the instant it was stored.
// Entries carry no expiry of their own; freshness is decided by the
// reader, which compares StoredAt against its own TTL. This keeps the
// storage shape fixed while letting every route choose its duration.
type Entry struct {
	Payload  []byte
	StoredAt time.Time
}

// Store is the interface for caching proxied response payloads.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get should never error; it returns (Entry{}, false) on miss.
// - Replacement: Set overwrites wholesale; entries are never merged.
type Store interface {
	// Get retrieves a cached entry. Returns (Entry{}, false) on miss.
	Get(ctx context.Context, key string) (Entry, bool)

	// Set stores a payload under key with StoredAt set to the current
	// time, replacing any previous entry.
	Set(ctx context.Context, key string, payload []byte) error

	// Clear drops every entry. Always succeeds.
	Clear(ctx context.Context) error

	// Len reports the number of stored entries.
	Len() int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
