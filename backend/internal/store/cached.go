package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"irrigation-monitor/backend/internal/irrigation"
	"irrigation-monitor/backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

const (
	// LatestKey is a hash holding the newest reading: "order" is its sort key, "data" its JSON.
	LatestKey = "irrigation:reading:latest"
	// LatestTTL lets the key expire when the device goes quiet for a long time.
	LatestTTL = 24 * time.Hour
)

// setIfNewer replaces the cached reading unless the cached one sorts after it.
// Sort keys are fixed width, so string comparison follows (captured_at, id).
var setIfNewer = redis.NewScript(`
local cur = redis.call("HGET", KEYS[1], "order")
if cur and cur > ARGV[1] then
	return 0
end
redis.call("HSET", KEYS[1], "order", ARGV[1], "data", ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return 1
`)

// cachedReading is the JSON shape of a reading in Redis.
type cachedReading struct {
	ID           int64     `json:"id"`
	CapturedAt   time.Time `json:"captured_at"`
	SoilMoisture float64   `json:"soil_moisture"`
	Humidity     float64   `json:"humidity"`
	Temperature  float64   `json:"temperature"`
	Rainfall     *float64  `json:"rainfall"`
}

// CachedRepository writes through to the wrapped repository and keeps the latest reading in
// Redis for the dashboard's polling. The wrapped repository stays the source of truth: Redis
// errors are logged and never fail a call.
type CachedRepository struct {
	irrigation.Repository

	rdb redis.UniversalClient
	l   *slog.Logger
}

func NewCachedRepository(l *slog.Logger, next irrigation.Repository, rdb redis.UniversalClient) *CachedRepository {
	return &CachedRepository{
		Repository: next,
		rdb:        rdb,
		l:          l.With(slog.String("component", "reading-cache")),
	}
}

func (c *CachedRepository) Append(ctx context.Context, r irrigation.Reading) (irrigation.Reading, error) {
	stored, err := c.Repository.Append(ctx, r)
	if err != nil {
		return irrigation.Reading{}, err
	}

	// Readings may be appended out of time order (seeding or concurrent transports).
	c.store(ctx, stored)

	return stored, nil
}

func (c *CachedRepository) Latest(ctx context.Context) (irrigation.Reading, bool, error) {
	if r, ok := c.cached(ctx); ok {
		return r, true, nil
	}

	r, ok, err := c.Repository.Latest(ctx)
	if err != nil || !ok {
		return r, ok, err
	}

	c.store(ctx, r)

	return r, true, nil
}

// Reset drops the cached reading so the next Latest reloads it from the wrapped repository.
func (c *CachedRepository) Reset(ctx context.Context) error {
	return c.rdb.Del(ctx, LatestKey).Err()
}

// Ping checks Redis; the wrapped repository is checked separately.
func (c *CachedRepository) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *CachedRepository) cached(ctx context.Context) (irrigation.Reading, bool) {
	data, err := c.rdb.HGet(ctx, LatestKey, "data").Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.l.Warn("failed to read latest reading from cache", utils.ErrAttr(err))
		}

		return irrigation.Reading{}, false
	}

	cr, err := utils.FromJSON[cachedReading](data)
	if err != nil {
		c.l.Warn("discarding unreadable cached reading", utils.ErrAttr(err))

		return irrigation.Reading{}, false
	}

	return irrigation.Reading{
		ID:           cr.ID,
		CapturedAt:   cr.CapturedAt.UTC(),
		SoilMoisture: cr.SoilMoisture,
		Humidity:     cr.Humidity,
		Temperature:  cr.Temperature,
		Rainfall:     cr.Rainfall,
	}, true
}

func (c *CachedRepository) store(ctx context.Context, r irrigation.Reading) {
	data, err := utils.ToJSON(cachedReading{
		ID:           r.ID,
		CapturedAt:   r.CapturedAt,
		SoilMoisture: r.SoilMoisture,
		Humidity:     r.Humidity,
		Temperature:  r.Temperature,
		Rainfall:     r.Rainfall,
	})
	if err != nil {
		c.l.Warn("failed to encode reading for cache", utils.ErrAttr(err))

		return
	}

	order := fmt.Sprintf("%020d:%020d", r.CapturedAt.UnixNano(), r.ID)

	err = setIfNewer.Run(ctx, c.rdb, []string{LatestKey}, order, data, LatestTTL.Milliseconds()).Err()
	if err != nil {
		c.l.Warn("failed to cache latest reading", utils.ErrAttr(err))
	}
}
