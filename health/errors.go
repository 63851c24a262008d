package health

import "errors"

// Sentinel errors for health checks.
var (
	// ErrCheckerNotFound indicates the named checker is not registered.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCheckFailed indicates a check crossed its failure threshold.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timed out")
)
