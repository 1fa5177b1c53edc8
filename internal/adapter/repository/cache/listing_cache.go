// Package cache is the redis-backed second-level cache for single-listing
// reads, shared between service instances.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carhive/marketplace/internal/listing/domain"
)

const listingTTL = time.Hour

type ListingCache struct {
	client *redis.Client
}

func NewListingCache(addr string) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &ListingCache{client: client}, nil
}

// GetCar returns nil without error on a cache miss.
func (c *ListingCache) GetCar(ctx context.Context, id string) (*domain.Car, error) {
	data, err := c.client.Get(ctx, carKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var car domain.Car
	if err := json.Unmarshal(data, &car); err != nil {
		return nil, err
	}
	return &car, nil
}

func (c *ListingCache) SetCar(ctx context.Context, car domain.Car) error {
	data, err := json.Marshal(car)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, carKey(car.ID), data, listingTTL).Err()
}

func (c *ListingCache) DeleteCar(ctx context.Context, id string) error {
	return c.client.Del(ctx, carKey(id)).Err()
}

func carKey(id string) string { return "car:" + id }
