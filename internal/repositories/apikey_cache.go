package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vudy/otc-desk/internal/logger"
	"github.com/vudy/otc-desk/internal/models"
)

// APIKeyCacheRepository caches resolved API key records in Redis so the hot
// external-create path does not hit Postgres on every request.
type APIKeyCacheRepository struct {
	client *redis.Client
	exp    time.Duration
}

// NewAPIKeyCacheRepository creates the cache repository with the given TTL.
func NewAPIKeyCacheRepository(client *redis.Client, expiration time.Duration) *APIKeyCacheRepository {
	return &APIKeyCacheRepository{
		client: client,
		exp:    expiration,
	}
}

func apiKeyCacheKey(keyHash string) string {
	return fmt.Sprintf("api_key:%s", keyHash)
}

// GetByHash fetches a cached key record. A cache miss is returned as an error
// so the caller falls through to the store.
func (r *APIKeyCacheRepository) GetByHash(ctx context.Context, keyHash string) (*models.APIKeyDB, error) {
	key := apiKeyCacheKey(keyHash)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("api key not found in cache")
		}
		logger.Log.Errorw("api key cache get failed", "error", err)
		return nil, err
	}

	var k models.APIKeyDB
	if err := json.Unmarshal([]byte(val), &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// SetByHash caches a resolved key record with the configured TTL.
func (r *APIKeyCacheRepository) SetByHash(ctx context.Context, keyHash string, k *models.APIKeyDB) error {
	data, err := json.Marshal(k)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, apiKeyCacheKey(keyHash), data, r.exp).Err()
	if err != nil {
		logger.Log.Errorw("api key cache set failed", "error", err)
	}
	return err
}
