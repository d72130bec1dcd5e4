package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bondflow/internal/application/ports"
	"bondflow/internal/config"
	"bondflow/internal/domain/models"
)

// resultTTL bounds how long a cached resolution is served; the scan
// cycle refreshes well inside it.
const resultTTL = 15 * time.Minute

// Adapter implements the CachePort interface for Redis.
type Adapter struct {
	client *redis.Client
}

// New creates a new Redis adapter.
func New(cfg config.CacheConfig) (ports.CachePort, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Adapter{client: client}, nil
}

// SetPriceResult stores the latest resolution for an instrument with TTL.
func (a *Adapter) SetPriceResult(ctx context.Context, result models.PriceResult) error {
	key := fmt.Sprintf("pricing:latest:%s", result.InstrumentID)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return a.client.Set(ctx, key, data, resultTTL).Err()
}

// GetPriceResult returns the cached resolution for an instrument, or
// nil on a miss.
func (a *Adapter) GetPriceResult(ctx context.Context, instrumentID string) (*models.PriceResult, error) {
	key := fmt.Sprintf("pricing:latest:%s", instrumentID)

	data, err := a.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var result models.PriceResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close closes the cache connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}
