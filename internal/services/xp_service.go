package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/internal/models"
	"learnhub/internal/notify"
	"learnhub/internal/repository"
	"learnhub/internal/worker"
	"learnhub/internal/xp"
)

var (
	ErrInvalidWallet    = fmt.Errorf("wallet address is required")
	ErrInvalidAmount    = fmt.Errorf("requested XP must be positive")
	ErrInvalidSource    = fmt.Errorf("unknown XP source type")
	ErrInvalidSourceRef = fmt.Errorf("source reference is required")
)

// AwardInput describes one XP-producing accomplishment
type AwardInput struct {
	WalletAddress string
	SourceType    models.XPSource
	SourceRef     string
	Amount        int
	Reason        string
}

// AwardResult is the outcome of an award attempt. AlreadyAwarded means
// the same (wallet, source, ref) tuple was paid before; Granted then
// reports the original amount and nothing was mutated.
type AwardResult struct {
	Granted        int  `json:"granted"`
	NewTotalXP     int  `json:"new_total_xp"`
	Level          int  `json:"level"`
	LeveledUp      bool `json:"leveled_up"`
	AlreadyAwarded bool `json:"already_awarded"`
}

// XPService is the single entry point through which all XP mutations
// flow. Feature services never touch account totals directly.
//
// The cap check and the account update run inside one transaction that
// holds a row lock on the wallet's account, so concurrent awards for
// one wallet serialize in the storage layer. That holds across
// replicas sharing a database, where a process-local mutex would not.
// The unique index on the award tuple additionally guarantees no
// double payment for a repeated source reference.
type XPService struct {
	db       *gorm.DB
	dailyCap int

	// Post-commit collaborators, all optional and all best-effort:
	// their failure never rolls back a committed award.
	pool  *worker.Pool
	cache *repository.LeaderboardCache
	hub   *notify.Hub
}

// NewXPService creates a new XPService
func NewXPService(db *gorm.DB, dailyCap int) *XPService {
	return &XPService{
		db:       db,
		dailyCap: dailyCap,
	}
}

// WithActivityPool attaches the async audit-trail writer
func (s *XPService) WithActivityPool(pool *worker.Pool) *XPService {
	s.pool = pool
	return s
}

// WithLeaderboardCache attaches the Redis standings cache
func (s *XPService) WithLeaderboardCache(cache *repository.LeaderboardCache) *XPService {
	s.cache = cache
	return s
}

// WithNotifier attaches the WebSocket change-signal hub
func (s *XPService) WithNotifier(hub *notify.Hub) *XPService {
	s.hub = hub
	return s
}

// Award grants XP for one accomplishment. Repeating the same tuple is a
// defined success path that reports the original grant; a grant clamped
// to zero by the daily cap is also a success, not an error.
func (s *XPService) Award(ctx context.Context, in AwardInput) (*AwardResult, error) {
	if in.WalletAddress == "" {
		return nil, ErrInvalidWallet
	}
	if in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !in.SourceType.Valid() {
		return nil, ErrInvalidSource
	}
	if in.SourceRef == "" {
		return nil, ErrInvalidSourceRef
	}

	now := time.Now().UTC()
	result := &AwardResult{}
	var account models.Account
	var before int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Account is created on first wallet contact with zero XP. When
		// two first-contact awards race, the wallet unique index plus
		// DoNothing lets one insert win; the locked read below then
		// loads that row either way.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Where(models.Account{WalletAddress: in.WalletAddress}).
			Attrs(models.Account{Level: 1}).
			FirstOrCreate(&account).Error; err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}

		// The row lock pins the (cap read, XP write) pair to one wallet
		// at a time. Two transactions for the same wallet queue here
		// instead of both summing the same earned-today value. sqlite
		// has no FOR UPDATE; its single writer gives the same ordering.
		lookup := tx
		if tx.Dialector.Name() == "postgres" {
			lookup = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := lookup.Where("wallet_address = ?", in.WalletAddress).
			First(&account).Error; err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}

		earnedToday, err := s.earnedInDay(tx, in.WalletAddress, now)
		if err != nil {
			return fmt.Errorf("failed to sum daily XP: %w", err)
		}

		granted := s.dailyCap - earnedToday
		if granted > in.Amount {
			granted = in.Amount
		}
		if granted < 0 {
			granted = 0
		}

		// The insert is the idempotency reservation: the unique index on
		// (wallet, source, ref) makes exactly one concurrent attempt win.
		award := models.XPAward{
			WalletAddress: in.WalletAddress,
			SourceType:    in.SourceType,
			SourceRef:     in.SourceRef,
			Requested:     in.Amount,
			XPAwarded:     granted,
			Reason:        in.Reason,
			AwardedAt:     now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "wallet_address"}, {Name: "source_type"}, {Name: "source_ref"},
			},
			DoNothing: true,
		}).Create(&award)
		if res.Error != nil {
			return fmt.Errorf("failed to record award: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			var prior models.XPAward
			if err := tx.Where(
				"wallet_address = ? AND source_type = ? AND source_ref = ?",
				in.WalletAddress, in.SourceType, in.SourceRef,
			).First(&prior).Error; err != nil {
				return fmt.Errorf("failed to load prior award: %w", err)
			}
			result.Granted = prior.XPAwarded
			result.NewTotalXP = account.TotalXP
			result.Level = account.Level
			result.AlreadyAwarded = true
			return nil
		}

		before = account.TotalXP
		newTotal := before + granted
		newLevel := xp.Level(newTotal)

		// Level is never written independently of the XP change
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			Updates(map[string]interface{}{
				"total_xp": newTotal,
				"level":    newLevel,
			}).Error; err != nil {
			return fmt.Errorf("failed to update account XP: %w", err)
		}

		account.TotalXP = newTotal
		account.Level = newLevel

		result.Granted = granted
		result.NewTotalXP = newTotal
		result.Level = newLevel
		result.LeveledUp = xp.LeveledUp(before, newTotal)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyAwarded {
		s.afterCommit(in, result, before)
	}

	return result, nil
}

// DailyClaim awards the daily login XP. The source reference is the UTC
// date string, so a second claim on the same day reports the first.
func (s *XPService) DailyClaim(ctx context.Context, walletAddress string, amount int) (*AwardResult, error) {
	day := time.Now().UTC().Format("2006-01-02")
	return s.Award(ctx, AwardInput{
		WalletAddress: walletAddress,
		SourceType:    models.XPSourceDailyLogin,
		SourceRef:     day,
		Amount:        amount,
		Reason:        "daily login " + day,
	})
}

// EarnedToday returns the XP a wallet has earned in the current UTC day
func (s *XPService) EarnedToday(ctx context.Context, walletAddress string) (int, error) {
	return s.earnedInDay(s.db.WithContext(ctx), walletAddress, time.Now().UTC())
}

// RecentActivities returns the latest audit entries for a wallet
func (s *XPService) RecentActivities(ctx context.Context, walletAddress string, limit int) ([]models.XPActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var activities []models.XPActivity
	err := s.db.WithContext(ctx).
		Where("wallet_address = ?", walletAddress).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}

// utcDayBounds returns the start and end of the current UTC calendar day
func utcDayBounds() (time.Time, time.Time) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// earnedInDay sums awarded XP for the UTC calendar day containing now.
// The boundary is UTC midnight, not a rolling window.
func (s *XPService) earnedInDay(tx *gorm.DB, walletAddress string, now time.Time) (int, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var earned int64
	err := tx.Model(&models.XPAward{}).
		Where("wallet_address = ? AND awarded_at >= ? AND awarded_at < ?", walletAddress, dayStart, dayEnd).
		Select("COALESCE(SUM(xp_awarded), 0)").
		Scan(&earned).Error
	return int(earned), err
}

// afterCommit runs the best-effort steps: audit entry, cache mirror,
// change signal. Each failure is logged and swallowed.
func (s *XPService) afterCommit(in AwardInput, result *AwardResult, before int) {
	if s.pool != nil {
		activity := models.XPActivity{
			ID:            uuid.New(),
			WalletAddress: in.WalletAddress,
			SourceType:    in.SourceType,
			SourceRef:     in.SourceRef,
			Requested:     in.Amount,
			Granted:       result.Granted,
			XPBefore:      before,
			XPAfter:       result.NewTotalXP,
			LeveledUp:     result.LeveledUp,
			Reason:        in.Reason,
		}
		if err := s.pool.Submit(activity); err != nil {
			log.Printf("Activity entry dropped for %s: %v", in.WalletAddress, err)
		}
	}

	if s.cache != nil && result.Granted > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		var account models.Account
		if err := s.db.Where("wallet_address = ?", in.WalletAddress).First(&account).Error; err == nil {
			if err := s.cache.RecordXP(ctx, &account); err != nil {
				log.Printf("Leaderboard cache update failed for %s: %v", in.WalletAddress, err)
			}
		}
	}

	if s.hub != nil {
		s.hub.NotifyXPChange(notify.XPUpdate{
			WalletAddress: in.WalletAddress,
			Granted:       result.Granted,
			NewTotalXP:    result.NewTotalXP,
			Level:         result.Level,
			LeveledUp:     result.LeveledUp,
			Reason:        in.Reason,
		})
	}
}
