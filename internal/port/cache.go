package port

import "context"

// CacheRepository backs cross-process concerns: request deduplication and an
// optional shared stock counter for multi-replica deployments.
type CacheRepository interface {
	// DecrementStock atomically decreases stock in cache, returns false if insufficient
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)

	// IncrementStock restores stock (rollback and cancellation)
	IncrementStock(ctx context.Context, productID string, quantity int) error

	// SetStock seeds the cached counter
	SetStock(ctx context.Context, productID string, quantity int) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
