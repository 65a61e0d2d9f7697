package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/internal/models"
)

const maxPostLength = 2000

// SocialService handles the community feed. Reacting to a post awards
// a small XP amount to the post author, keyed by the reaction id.
type SocialService struct {
	db         *gorm.DB
	xpService  *XPService
	reactionXP int
}

// NewSocialService creates a new SocialService
func NewSocialService(db *gorm.DB, xpService *XPService, reactionXP int) *SocialService {
	return &SocialService{db: db, xpService: xpService, reactionXP: reactionXP}
}

// CreatePost publishes a post to the feed
func (s *SocialService) CreatePost(ctx context.Context, walletAddress, content string) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("post content is required")
	}
	if len(content) > maxPostLength {
		return nil, fmt.Errorf("post content exceeds %d characters", maxPostLength)
	}

	post := models.Post{
		ID:            uuid.New(),
		WalletAddress: walletAddress,
		Content:       content,
	}

	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return &post, nil
}

// Feed returns visible posts, newest first
func (s *SocialService) Feed(ctx context.Context, offset, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Where("hidden = ?", false).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// React records a reaction on a post and awards XP to the post author.
// Each wallet can react once per (post, kind); repeats are rejected.
// Reacting to your own post records the reaction but pays nothing.
func (s *SocialService) React(ctx context.Context, walletAddress string, postID uuid.UUID, kind models.ReactionKind) (*AwardResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unsupported reaction kind: %s", kind)
	}

	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ? AND hidden = ?", postID, false).First(&post).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("post not found")
		}
		return nil, err
	}

	reaction := models.Reaction{
		ID:            uuid.New(),
		PostID:        postID,
		WalletAddress: walletAddress,
		Kind:          kind,
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "wallet_address"}, {Name: "kind"}},
		DoNothing: true,
	}).Create(&reaction)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create reaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("already reacted")
	}

	// No farming XP off your own posts.
	if post.WalletAddress == walletAddress {
		return nil, nil
	}

	return s.xpService.Award(ctx, AwardInput{
		WalletAddress: post.WalletAddress,
		SourceType:    models.XPSourceReaction,
		SourceRef:     reaction.ID.String(),
		Amount:        s.reactionXP,
		Reason:        "post received a " + strings.ToLower(string(kind)) + " reaction",
	})
}

// Reactions returns all reactions on a post
func (s *SocialService) Reactions(ctx context.Context, postID uuid.UUID) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

// HidePost removes a post from the feed without deleting it
func (s *SocialService) HidePost(ctx context.Context, postID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		Update("hidden", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post not found")
	}
	return nil
}
