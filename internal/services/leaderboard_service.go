package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"learnhub/internal/models"
	"learnhub/internal/repository"
)

// Timeframe restricts the leaderboard candidate set by recent activity.
// Accounts whose updated_at falls outside the window are excluded before
// ranking, not merely ranked low.
type Timeframe string

const (
	TimeframeAllTime Timeframe = "all"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
)

// ParseTimeframe maps a query value to a Timeframe, defaulting to all-time
func ParseTimeframe(value string) (Timeframe, error) {
	switch value {
	case "", string(TimeframeAllTime):
		return TimeframeAllTime, nil
	case string(TimeframeWeekly):
		return TimeframeWeekly, nil
	case string(TimeframeMonthly):
		return TimeframeMonthly, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", value)
}

// LeaderboardScope filters the candidate set before ranking
type LeaderboardScope struct {
	Squad     string
	Timeframe Timeframe
}

func (sc LeaderboardScope) isGlobal() bool {
	return sc.Squad == "" && (sc.Timeframe == "" || sc.Timeframe == TimeframeAllTime)
}

// LeaderboardService computes competitive standings from account state.
// Ranks use competition ranking: tied totals share a rank and the next
// distinct total takes its 1-based sorted position, so totals
// [500, 500, 300, 100] rank [1, 1, 3, 4].
type LeaderboardService struct {
	db    *gorm.DB
	cache *repository.LeaderboardCache
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// WithCache attaches the Redis snapshot cache. Only global (unfiltered)
// reads are served from it; scoped reads always hit the database.
func (s *LeaderboardService) WithCache(cache *repository.LeaderboardCache) *LeaderboardService {
	s.cache = cache
	return s
}

// Rank returns one page of the ranked standings for the scope
func (s *LeaderboardService) Rank(ctx context.Context, scope LeaderboardScope, offset, limit int) (*models.LeaderboardResponse, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	// Global reads may come from the cache snapshot; entries are then at
	// most one refresh interval stale.
	if scope.isGlobal() && s.cache != nil {
		entries, err := s.cache.TopEntries(ctx, offset, limit)
		if err == nil {
			total, terr := s.cache.TotalAccounts(ctx)
			if terr == nil {
				return &models.LeaderboardResponse{
					Data:   entries,
					Offset: offset,
					Limit:  limit,
					Total:  total,
				}, nil
			}
			err = terr
		}
		log.Printf("Leaderboard cache read failed, falling back to database: %v", err)
	}

	var total int64
	if err := s.scoped(ctx, scope).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	entries, err := s.pageEntries(ctx, scope, offset, limit)
	if err != nil {
		return nil, err
	}

	return &models.LeaderboardResponse{
		Data:   entries,
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}, nil
}

// RankOf returns a wallet's rank within the scope plus a symmetric
// window of neighboring rows for context. A wallet excluded by the
// scope filters is reported as not found.
func (s *LeaderboardService) RankOf(ctx context.Context, walletAddress string, scope LeaderboardScope, window int) (*models.RankDetail, error) {
	if window <= 0 || window > 25 {
		window = 5
	}

	var account models.Account
	err := s.scoped(ctx, scope).
		Where("wallet_address = ?", walletAddress).
		First(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("wallet not ranked in this scope")
		}
		return nil, err
	}

	var higher int64
	if err := s.scoped(ctx, scope).Model(&models.Account{}).
		Where("total_xp > ?", account.TotalXP).
		Count(&higher).Error; err != nil {
		return nil, fmt.Errorf("failed to compute rank: %w", err)
	}

	// 0-based sorted position under the deterministic tie order
	// (total_xp DESC, wallet_address ASC)
	var tiedBefore int64
	if err := s.scoped(ctx, scope).Model(&models.Account{}).
		Where("total_xp = ? AND wallet_address < ?", account.TotalXP, walletAddress).
		Count(&tiedBefore).Error; err != nil {
		return nil, fmt.Errorf("failed to compute position: %w", err)
	}
	position := int(higher + tiedBefore)

	start := position - window
	if start < 0 {
		start = 0
	}
	rows, err := s.pageEntries(ctx, scope, start, position-start+window+1)
	if err != nil {
		return nil, err
	}

	detail := &models.RankDetail{
		Entry: models.LeaderboardEntry{
			Rank:          int(higher) + 1,
			WalletAddress: account.WalletAddress,
			DisplayName:   account.DisplayName,
			TotalXP:       account.TotalXP,
			Level:         account.Level,
		},
		Neighbors: make([]models.LeaderboardEntry, 0, len(rows)),
	}
	for _, row := range rows {
		if row.WalletAddress == walletAddress {
			continue
		}
		detail.Neighbors = append(detail.Neighbors, row)
	}

	return detail, nil
}

// pageEntries fetches one page of accounts in rank order and assigns
// competition ranks. The first row's rank is the count of strictly
// higher totals plus one; after that the rank jumps to the global
// position whenever the total drops, which is exact because tied rows
// are contiguous in the sort.
func (s *LeaderboardService) pageEntries(ctx context.Context, scope LeaderboardScope, offset, limit int) ([]models.LeaderboardEntry, error) {
	var accounts []models.Account
	err := s.scoped(ctx, scope).
		Order("total_xp DESC, wallet_address ASC").
		Offset(offset).
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(accounts))
	if len(accounts) == 0 {
		return entries, nil
	}

	var higher int64
	if err := s.scoped(ctx, scope).Model(&models.Account{}).
		Where("total_xp > ?", accounts[0].TotalXP).
		Count(&higher).Error; err != nil {
		return nil, fmt.Errorf("failed to anchor page rank: %w", err)
	}

	currentRank := int(higher) + 1
	previousXP := accounts[0].TotalXP

	for i := range accounts {
		a := &accounts[i]
		if a.TotalXP < previousXP {
			currentRank = offset + i + 1
			previousXP = a.TotalXP
		}

		entries = append(entries, models.LeaderboardEntry{
			Rank:          currentRank,
			WalletAddress: a.WalletAddress,
			DisplayName:   a.DisplayName,
			TotalXP:       a.TotalXP,
			Level:         a.Level,
		})
	}

	return entries, nil
}

// scoped applies the squad and timeframe filters to an accounts query
func (s *LeaderboardService) scoped(ctx context.Context, scope LeaderboardScope) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Account{})

	if scope.Squad != "" {
		q = q.Where("squad = ?", scope.Squad)
	}

	switch scope.Timeframe {
	case TimeframeWeekly:
		q = q.Where("updated_at >= ?", time.Now().UTC().AddDate(0, 0, -7))
	case TimeframeMonthly:
		q = q.Where("updated_at >= ?", time.Now().UTC().AddDate(0, 0, -30))
	}

	return q
}

// AllAccounts returns every account ordered by XP, used by the cache
// refresher to rebuild the Redis snapshot.
func (s *LeaderboardService) AllAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Order("total_xp DESC, wallet_address ASC").
		Find(&accounts).Error
	return accounts, err
}
