// internal/market/forecastcache/cache.go
package forecastcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cropsense-workers/internal/market/forecast"
)

const keyPrefix = "forecast"

// Store keeps forecast results in Redis for the rest of the forecast day.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Key identifies a forecast by resolved crop and state, the caller's
// location text and the UTC start date.
func Key(cropKey, state, location string, day time.Time) string {
	loc := strings.Join(strings.Fields(strings.ToLower(location)), "_")
	return fmt.Sprintf("%s:%s:%s:%s:%s", keyPrefix, cropKey, state, loc, day.UTC().Format(time.DateOnly))
}

// Get returns ok=false on a miss.
func (s *Store) Get(ctx context.Context, key string) (forecast.Result, bool, error) {
	var res forecast.Result
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return res, false, nil
	}
	if err != nil {
		return res, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return res, false, fmt.Errorf("decode cached forecast %s: %w", key, err)
	}
	return res, true, nil
}

func (s *Store) Set(ctx context.Context, key string, res forecast.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
