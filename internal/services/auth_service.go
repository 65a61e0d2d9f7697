package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"learnhub/internal/models"
	"learnhub/internal/utils"
)

// AuthService handles wallet login and account lookup
type AuthService struct {
	db *gorm.DB
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// ProcessWalletLogin finds or creates an account by wallet address. New
// accounts start at zero XP, level 1, with a generated display name.
func (s *AuthService) ProcessWalletLogin(walletAddress string) (*models.Account, error) {
	var account models.Account

	result := s.db.Where("wallet_address = ?", walletAddress).First(&account)

	if result.Error == gorm.ErrRecordNotFound {
		displayName, err := utils.GenerateDisplayName()
		if err != nil {
			return nil, fmt.Errorf("failed to generate display name: %w", err)
		}

		account = models.Account{
			WalletAddress: walletAddress,
			DisplayName:   displayName,
			Level:         1,
		}

		if err := s.db.Create(&account).Error; err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}

		log.Printf("New account created: wallet=%s (ID: %d)", walletAddress, account.ID)
	} else if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	return &account, nil
}

// GetByWallet retrieves an account by wallet address
func (s *AuthService) GetByWallet(walletAddress string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("wallet_address = ?", walletAddress).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("account not found")
		}
		return nil, err
	}
	return &account, nil
}

// UpdateProfile sets the mutable profile fields. XP and level are never
// touched here.
func (s *AuthService) UpdateProfile(walletAddress, displayName, squad string) (*models.Account, error) {
	account, err := s.GetByWallet(walletAddress)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if squad != "" {
		updates["squad"] = squad
	}
	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.Model(account).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return account, nil
}
