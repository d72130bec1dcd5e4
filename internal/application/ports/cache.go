package ports

import (
	"context"

	"bondflow/internal/domain/models"
)

// CachePort defines the interface for the fast-read pricing cache.
// Cache writes are best effort: a cache failure never fails a resolution.
type CachePort interface {
	// SetPriceResult stores the latest resolution result for an
	// instrument with the cache's TTL.
	SetPriceResult(ctx context.Context, result models.PriceResult) error

	// GetPriceResult returns the cached result for an instrument, or
	// nil on a miss.
	GetPriceResult(ctx context.Context, instrumentID string) (*models.PriceResult, error)

	// Close closes the cache connection.
	Close() error
}
