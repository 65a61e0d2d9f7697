package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"learnhub/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	// scoreKey is the sorted set of wallet -> total XP
	scoreKey = "leaderboard:xp"

	// metaKey is the hash of wallet -> cached account fields
	metaKey = "leaderboard:accounts"

	// versionKey is a counter bumped on every write, polled by the
	// notification hub for cheap change detection
	versionKey = "leaderboard:version"
)

// cachedAccount is the JSON shape stored in the metadata hash
type cachedAccount struct {
	DisplayName string `json:"display_name"`
	TotalXP     int    `json:"total_xp"`
	Level       int    `json:"level"`
}

// LeaderboardCache mirrors the global (unfiltered) standings in Redis.
// It is a read accelerator only: postgres remains the source of truth
// and the cache is rebuilt from it on a bounded interval, so entries
// are at most one refresh interval stale.
type LeaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{client: client}
}

// RecordXP writes a single account's committed total into the cache and
// bumps the version counter.
func (c *LeaderboardCache) RecordXP(ctx context.Context, account *models.Account) error {
	meta, err := json.Marshal(cachedAccount{
		DisplayName: account.DisplayName,
		TotalXP:     account.TotalXP,
		Level:       account.Level,
	})
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, scoreKey, redis.Z{
		Score:  float64(account.TotalXP),
		Member: account.WalletAddress,
	})
	pipe.HSet(ctx, metaKey, account.WalletAddress, meta)
	pipe.Incr(ctx, versionKey)

	_, err = pipe.Exec(ctx)
	return err
}

// Rebuild replaces the cached standings with a fresh snapshot
func (c *LeaderboardCache) Rebuild(ctx context.Context, accounts []models.Account) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, scoreKey, metaKey)

	for i := range accounts {
		a := &accounts[i]
		meta, err := json.Marshal(cachedAccount{
			DisplayName: a.DisplayName,
			TotalXP:     a.TotalXP,
			Level:       a.Level,
		})
		if err != nil {
			return err
		}
		pipe.ZAdd(ctx, scoreKey, redis.Z{
			Score:  float64(a.TotalXP),
			Member: a.WalletAddress,
		})
		pipe.HSet(ctx, metaKey, a.WalletAddress, meta)
	}
	pipe.Incr(ctx, versionKey)

	_, err := pipe.Exec(ctx)
	return err
}

// TopEntries returns leaderboard entries for the given page, ranked with
// the same competition ranking the database path uses: tied totals share
// a rank and the next distinct total takes its 1-based sorted position.
// Ties come back in reverse lexical member order, the opposite of the
// database path's wallet-ascending order; the ranks themselves are
// identical because tied rows share a rank in both.
func (c *LeaderboardCache) TopEntries(ctx context.Context, offset, limit int) ([]models.LeaderboardEntry, error) {
	zs, err := c.client.ZRevRangeWithScores(ctx, scoreKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	wallets := make([]string, len(zs))
	for i, z := range zs {
		wallets[i] = z.Member.(string)
	}

	metas, err := c.client.HMGet(ctx, metaKey, wallets...).Result()
	if err != nil {
		return nil, err
	}

	// The first row's rank is the count of strictly higher totals + 1;
	// subsequent rows take their global position whenever the total drops.
	firstXP := int(zs[0].Score)
	higher, err := c.client.ZCount(ctx, scoreKey, fmt.Sprintf("(%d", firstXP), "+inf").Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(zs))
	currentRank := int(higher) + 1
	previousXP := firstXP

	for i, z := range zs {
		totalXP := int(z.Score)
		if totalXP < previousXP {
			currentRank = offset + i + 1
			previousXP = totalXP
		}

		entry := models.LeaderboardEntry{
			Rank:          currentRank,
			WalletAddress: wallets[i],
			TotalXP:       totalXP,
		}

		if raw, ok := metas[i].(string); ok {
			var meta cachedAccount
			if err := json.Unmarshal([]byte(raw), &meta); err == nil {
				entry.DisplayName = meta.DisplayName
				entry.Level = meta.Level
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// TotalAccounts returns the number of cached accounts
func (c *LeaderboardCache) TotalAccounts(ctx context.Context) (int64, error) {
	return c.client.ZCard(ctx, scoreKey).Result()
}

// Version returns the current cache version counter
func (c *LeaderboardCache) Version(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// Ping checks if the cache is reachable
func (c *LeaderboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}
