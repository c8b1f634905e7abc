// Package geo answers where a provider currently is.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/glowbook/service-booking/internal/clock"
	bookingDomain "github.com/glowbook/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultMaxAge is how old a reported location may be before it is ignored.
const DefaultMaxAge = 2 * time.Minute

const locationsKey = "providers:locations"

func memberName(providerID uuid.UUID) string {
	return "provider:" + providerID.String()
}

func seenKey(providerID uuid.UUID) string {
	return "providers:seen:" + providerID.String()
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(from, to bookingDomain.GeoPoint) float64 {
	return from.DistanceTo(to)
}

// RedisLocator stores provider positions in a Redis GEO set. A companion key
// per provider holds the report time and expires after maxAge.
type RedisLocator struct {
	rdb    *redis.Client
	maxAge time.Duration
	clock  clock.Clock
}

// NewRedisLocator creates a RedisLocator.
func NewRedisLocator(rdb *redis.Client, maxAge time.Duration, clk clock.Clock) *RedisLocator {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &RedisLocator{rdb: rdb, maxAge: maxAge, clock: clk}
}

// UpdateProviderLocation records the provider's live position.
func (l *RedisLocator) UpdateProviderLocation(ctx context.Context, providerID uuid.UUID, point bookingDomain.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	pipe := l.rdb.TxPipeline()
	pipe.GeoAdd(ctx, locationsKey, &redis.GeoLocation{
		Name:      memberName(providerID),
		Longitude: point.Lng,
		Latitude:  point.Lat,
	})
	pipe.Set(ctx, seenKey(providerID), l.clock.Now().Unix(), l.maxAge)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store provider location: %w", err)
	}
	return nil
}

// CurrentProviderLocation returns the last position if it is recent enough,
// or nil when there is none.
func (l *RedisLocator) CurrentProviderLocation(ctx context.Context, providerID uuid.UUID) (*bookingDomain.GeoPoint, error) {
	seen, err := l.rdb.Get(ctx, seenKey(providerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read provider location age: %w", err)
	}
	seenUnix, err := strconv.ParseInt(seen, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid provider location timestamp %q: %w", seen, err)
	}
	if l.clock.Now().Sub(time.Unix(seenUnix, 0)) > l.maxAge {
		return nil, nil
	}

	pos, err := l.rdb.GeoPos(ctx, locationsKey, memberName(providerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read provider location: %w", err)
	}
	if len(pos) == 0 || pos[0] == nil {
		return nil, nil
	}
	return &bookingDomain.GeoPoint{Lat: pos[0].Latitude, Lng: pos[0].Longitude}, nil
}

// DistanceMeters returns the haversine distance.
func (l *RedisLocator) DistanceMeters(from, to bookingDomain.GeoPoint) float64 {
	return Haversine(from, to)
}
