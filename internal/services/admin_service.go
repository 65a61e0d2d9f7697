package services

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"learnhub/internal/models"
)

// AdminService handles staff-only operations: manual XP grants,
// platform stats and the audit trail.
type AdminService struct {
	db        *gorm.DB
	xpService *XPService
}

// PlatformStats is an aggregate snapshot for the admin dashboard
type PlatformStats struct {
	TotalAccounts  int64 `json:"total_accounts"`
	TotalXPAwarded int64 `json:"total_xp_awarded"`
	AwardsToday    int64 `json:"awards_today"`
	TotalCourses   int64 `json:"total_courses"`
	TotalBounties  int64 `json:"total_bounties"`
	PendingReviews int64 `json:"pending_reviews"`
	TotalPosts     int64 `json:"total_posts"`
}

// NewAdminService creates a new AdminService
func NewAdminService(db *gorm.DB, xpService *XPService) *AdminService {
	return &AdminService{db: db, xpService: xpService}
}

// GetAdminByWallet returns the admin record for a wallet, or
// gorm.ErrRecordNotFound if the wallet is not staff
func (s *AdminService) GetAdminByWallet(ctx context.Context, walletAddress string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// Grant manually awards XP to a wallet and records the action in the
// audit log. sourceRef distinguishes repeated grants to the same wallet.
func (s *AdminService) Grant(ctx context.Context, admin *models.AdminUser, walletAddress, sourceRef string, amount int, reason string) (*AwardResult, error) {
	if reason == "" {
		return nil, fmt.Errorf("grant reason is required")
	}

	result, err := s.xpService.Award(ctx, AwardInput{
		WalletAddress: walletAddress,
		SourceType:    models.XPSourceAdminGrant,
		SourceRef:     sourceRef,
		Amount:        amount,
		Reason:        reason,
	})
	if err != nil {
		return nil, err
	}

	s.logAction(ctx, admin.ID, "XP_GRANT", walletAddress,
		fmt.Sprintf("requested=%d granted=%d reason=%s", amount, result.Granted, reason))

	return result, nil
}

// Stats returns aggregate platform counters
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Account{}).Count(&stats.TotalAccounts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Account{}).Select("COALESCE(SUM(total_xp), 0)").Scan(&stats.TotalXPAwarded).Error; err != nil {
		return nil, err
	}

	start, end := utcDayBounds()
	if err := db.Model(&models.XPAward{}).
		Where("awarded_at >= ? AND awarded_at < ?", start, end).
		Count(&stats.AwardsToday).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.Course{}).Count(&stats.TotalCourses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Bounty{}).Count(&stats.TotalBounties).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.BountySubmission{}).
		Where("status = ?", models.SubmissionStatusPending).
		Count(&stats.PendingReviews).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Post{}).Where("hidden = ?", false).Count(&stats.TotalPosts).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

// Logs returns recent audit entries, newest first
func (s *AdminService) Logs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var logs []models.AdminLog
	err := s.db.WithContext(ctx).
		Preload("Admin").
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// LogAction records an administrative action in the audit trail
func (s *AdminService) LogAction(ctx context.Context, adminID uint, action, targetWallet, details string) {
	s.logAction(ctx, adminID, action, targetWallet, details)
}

func (s *AdminService) logAction(ctx context.Context, adminID uint, action, targetWallet, details string) {
	entry := models.AdminLog{
		AdminID:      adminID,
		Action:       action,
		TargetWallet: targetWallet,
		Details:      details,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("Failed to write admin log (%s): %v", action, err)
	}
}
