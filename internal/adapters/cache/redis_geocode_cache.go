package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"van-route-service/internal/domain"
)

// keyPrefix namespaces geocode entries on a shared Redis instance.
const keyPrefix = "geocode:"

// RedisGeocodeCache keeps geocode results in Redis so multiple service
// instances share one cache. Entries expire after TTL; zero means no
// expiry.
type RedisGeocodeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration) *RedisGeocodeCache {
	return &RedisGeocodeCache{Client: client, TTL: ttl}
}

// Fetch cached coordinates for the given addresses.
func (r *RedisGeocodeCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	uniq := dedupe(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	keys := make([]string, len(uniq))
	for i, a := range uniq {
		keys[i] = keyPrefix + a
	}

	values, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: mget: %w", err)
	}

	out := make(map[string]domain.Coordinates, len(uniq))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		coords, err := parseCoords(s)
		if err != nil {
			// A corrupt entry is treated as a miss rather than failing
			// the whole batch.
			continue
		}
		out[uniq[i]] = coords
	}
	return out, nil
}

// Store address -> coordinate mappings in the cache.
func (r *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	if len(results) == 0 {
		return nil
	}

	pipe := r.Client.Pipeline()
	for addr, c := range results {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}
		pipe.Set(ctx, keyPrefix+addr, formatCoords(c), r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: pipeline exec: %w", err)
	}
	return nil
}

func formatCoords(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

func parseCoords(s string) (domain.Coordinates, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("malformed cache value %q", s)
	}
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed latitude in %q: %w", s, err)
	}
	lngF, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed longitude in %q: %w", s, err)
	}
	return domain.Coordinates{Lat: latF, Lng: lngF}, nil
}
