package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizzer-backend/internal/models"
)

// ErrCacheMiss is returned by LeaderboardCache.Get when no entry is stored.
var ErrCacheMiss = errors.New("cache miss")

type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func leaderboardKey(grade, subject string) string {
	return fmt.Sprintf("leaderboard:%s:%s", grade, subject)
}

func leaderboardVersionKey(grade, subject string) string {
	return fmt.Sprintf("leaderboard:version:%s:%s", grade, subject)
}

// Version returns the invalidation counter for a leaderboard. Read it before
// loading from the store and pass it to Set.
func (c *LeaderboardCache) Version(ctx context.Context, grade, subject string) (int64, error) {
	v, err := c.client.Get(ctx, leaderboardVersionKey(grade, subject)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *LeaderboardCache) Get(ctx context.Context, grade, subject string) ([]*models.LeaderboardEntry, error) {
	raw, err := c.client.Get(ctx, leaderboardKey(grade, subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var entries []*models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode cached leaderboard: %w", err)
	}
	return entries, nil
}

// Set stores entries only if no Invalidate ran since version was read, so a
// slow reader cannot overwrite a newer submission with a stale ranking.
func (c *LeaderboardCache) Set(ctx context.Context, grade, subject string, version int64, entries []*models.LeaderboardEntry) error {
	if c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	versionKey := leaderboardVersionKey(grade, subject)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, leaderboardKey(grade, subject), raw, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the version and drops the cached ranking.
func (c *LeaderboardCache) Invalidate(ctx context.Context, grade, subject string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, leaderboardVersionKey(grade, subject))
		pipe.Del(ctx, leaderboardKey(grade, subject))
		return nil
	})
	return err
}
