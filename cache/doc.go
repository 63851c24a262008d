// Package cache provides time-bounded memoization of proxied JSON responses.
//
// It provides a Store interface with a memory implementation, request-identity
// key derivation, TTL policies, and HTTP middleware that replays fresh entries
// and captures successful responses as they are written.
package cache
