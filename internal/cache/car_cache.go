package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/carads/internal/models"
)

// ICarCache is a read-through cache for single listings.
type ICarCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, ownerID, carID primitive.ObjectID) (*models.Car, error)
	// Set fills an empty slot only. It never overwrites a live entry or a
	// tombstone left by Invalidate.
	Set(ctx context.Context, car *models.Car) error
	// Invalidate replaces the entry with a short-lived tombstone so that a
	// reader holding a pre-write snapshot cannot repopulate the cache.
	Invalidate(ctx context.Context, ownerID, carID primitive.ObjectID) error
}

const (
	tombstone = "-"
	// TombstoneTTL bounds how long a key stays uncacheable after a write.
	TombstoneTTL = 5 * time.Second
)

type redisCarCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCarCache returns a Redis-backed ICarCache.
func NewCarCache(rdb *redis.Client, ttl time.Duration) ICarCache {
	return &redisCarCache{rdb: rdb, ttl: ttl}
}

// CarKey is owner-scoped so a cached entry can never leak across users.
func CarKey(ownerID, carID primitive.ObjectID) string {
	return fmt.Sprintf("car:%s:%s", ownerID.Hex(), carID.Hex())
}

func (c *redisCarCache) Get(ctx context.Context, ownerID, carID primitive.ObjectID) (*models.Car, error) {
	data, err := c.rdb.Get(ctx, CarKey(ownerID, carID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read car cache: %w", err)
	}
	if string(data) == tombstone {
		return nil, nil
	}
	var car models.Car
	if err := json.Unmarshal(data, &car); err != nil {
		return nil, fmt.Errorf("failed to decode cached car: %w", err)
	}
	return &car, nil
}

func (c *redisCarCache) Set(ctx context.Context, car *models.Car) error {
	data, err := json.Marshal(car)
	if err != nil {
		return fmt.Errorf("failed to encode car for cache: %w", err)
	}
	return c.rdb.SetNX(ctx, CarKey(car.CreatedBy, car.ID), data, c.ttl).Err()
}

func (c *redisCarCache) Invalidate(ctx context.Context, ownerID, carID primitive.ObjectID) error {
	return c.rdb.Set(ctx, CarKey(ownerID, carID), tombstone, TombstoneTTL).Err()
}
