package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/commute-matching/internal/geo"
)

// RedisCache memoises another Geocoder in Redis. Redis failures are logged
// and the lookup goes to the wrapped geocoder.
type RedisCache struct {
	next   Geocoder
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(next Geocoder, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) Geocode(ctx context.Context, location string) (geo.Point, error) {
	key := cacheKey(location)
	v, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if p, perr := decodePoint(v); perr == nil {
			return p, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("geocode cache read failed", "error", err)
	}

	p, err := c.next.Geocode(ctx, location)
	if err != nil {
		return geo.Point{}, err
	}
	if err := c.client.Set(ctx, key, encodePoint(p), c.ttl).Err(); err != nil {
		c.logger.Warn("geocode cache write failed", "error", err)
	}
	return p, nil
}

func cacheKey(location string) string {
	return "geocode:" + strings.Join(strings.Fields(strings.ToLower(location)), " ")
}

func encodePoint(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

func decodePoint(s string) (geo.Point, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, fmt.Errorf("bad cached point %q", s)
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, err
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return geo.Point{}, err
	}
	return geo.Point{Lat: la, Lng: ln}, nil
}
