// Package quota caps successful generations for unauthenticated callers.
package quota

import "context"

// Store tracks successful generations per caller fingerprint. Implementations
// must be safe for concurrent use: requests race on read and increment.
type Store interface {
	// Allow reports whether the caller may start another generation, along
	// with the number of generations still remaining.
	Allow(ctx context.Context, key string) (bool, int, error)
	// RecordSuccess increments the caller's counter. Only successful
	// generations count against the cap.
	RecordSuccess(ctx context.Context, key string) error
}
