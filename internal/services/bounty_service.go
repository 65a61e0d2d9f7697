package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"learnhub/internal/models"
)

// BountyService handles bounty challenges and submission review. An
// approved submission pays the bounty's XP reward through the XP
// service; token rewards are settled off-platform and only displayed.
type BountyService struct {
	db        *gorm.DB
	xpService *XPService
}

// NewBountyService creates a new BountyService
func NewBountyService(db *gorm.DB, xpService *XPService) *BountyService {
	return &BountyService{db: db, xpService: xpService}
}

// CreateBounty creates a new open bounty
func (s *BountyService) CreateBounty(ctx context.Context, title, description string, xpReward int, tokenReward decimal.Decimal) (*models.Bounty, error) {
	if title == "" {
		return nil, fmt.Errorf("bounty title is required")
	}
	if xpReward <= 0 {
		return nil, fmt.Errorf("bounty XP reward must be positive")
	}
	if tokenReward.IsNegative() {
		return nil, fmt.Errorf("token reward cannot be negative")
	}

	bounty := models.Bounty{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		XPReward:    xpReward,
		TokenReward: tokenReward,
		Status:      models.BountyStatusOpen,
	}

	if err := s.db.WithContext(ctx).Create(&bounty).Error; err != nil {
		return nil, fmt.Errorf("failed to create bounty: %w", err)
	}

	return &bounty, nil
}

// ListBounties returns bounties, optionally filtered by status
func (s *BountyService) ListBounties(ctx context.Context, status models.BountyStatus) ([]models.Bounty, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var bounties []models.Bounty
	err := q.Find(&bounties).Error
	return bounties, err
}

// Submit creates a pending submission for an open bounty
func (s *BountyService) Submit(ctx context.Context, walletAddress string, bountyID uuid.UUID, submissionURL string) (*models.BountySubmission, error) {
	if submissionURL == "" {
		return nil, fmt.Errorf("submission URL is required")
	}

	var bounty models.Bounty
	if err := s.db.WithContext(ctx).Where("id = ?", bountyID).First(&bounty).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("bounty not found")
		}
		return nil, err
	}
	if bounty.Status != models.BountyStatusOpen {
		return nil, fmt.Errorf("bounty is closed")
	}

	submission := models.BountySubmission{
		ID:            uuid.New(),
		BountyID:      bountyID,
		WalletAddress: walletAddress,
		SubmissionURL: submissionURL,
		Status:        models.SubmissionStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return &submission, nil
}

// ReviewSubmission approves or rejects a pending submission. Approval
// awards the bounty XP keyed by the submission id, so re-reviewing an
// already approved submission cannot pay twice.
func (s *BountyService) ReviewSubmission(ctx context.Context, reviewerWallet string, submissionID uuid.UUID, approve bool) (*AwardResult, error) {
	var submission models.BountySubmission
	err := s.db.WithContext(ctx).
		Where("id = ?", submissionID).
		Preload("Bounty").
		First(&submission).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("submission not found")
		}
		return nil, err
	}
	if submission.Status != models.SubmissionStatusPending {
		return nil, fmt.Errorf("submission already reviewed")
	}
	if submission.Bounty == nil {
		return nil, fmt.Errorf("submission has no bounty")
	}

	status := models.SubmissionStatusRejected
	if approve {
		status = models.SubmissionStatusApproved
	}

	// The status guard makes the pending-to-reviewed flip first-writer-
	// wins, matching CloseBounty. A concurrent review that lost the race
	// updates zero rows and cannot overwrite the stored verdict.
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.BountySubmission{}).
		Where("id = ? AND status = ?", submission.ID, models.SubmissionStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewerWallet,
			"reviewed_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update submission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("submission already reviewed")
	}

	if !approve {
		return nil, nil
	}

	return s.xpService.Award(ctx, AwardInput{
		WalletAddress: submission.WalletAddress,
		SourceType:    models.XPSourceBounty,
		SourceRef:     submission.ID.String(),
		Amount:        submission.Bounty.XPReward,
		Reason:        "bounty won: " + submission.Bounty.Title,
	})
}

// CloseBounty stops further submissions
func (s *BountyService) CloseBounty(ctx context.Context, bountyID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Bounty{}).
		Where("id = ? AND status = ?", bountyID, models.BountyStatusOpen).
		Update("status", models.BountyStatusClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("bounty not found or already closed")
	}
	return nil
}

// Submissions lists submissions for a bounty
func (s *BountyService) Submissions(ctx context.Context, bountyID uuid.UUID) ([]models.BountySubmission, error) {
	var submissions []models.BountySubmission
	err := s.db.WithContext(ctx).
		Where("bounty_id = ?", bountyID).
		Order("created_at DESC").
		Find(&submissions).Error
	return submissions, err
}
