package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BountyStatus string

const (
	BountyStatusOpen   BountyStatus = "OPEN"
	BountyStatusClosed BountyStatus = "CLOSED"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusApproved SubmissionStatus = "APPROVED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

// Bounty is a challenge that pays XP (and optionally a token reward,
// settled off-platform) when a submission is approved.
type Bounty struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	XPReward    int             `gorm:"not null;default:200" json:"xp_reward"`
	TokenReward decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"token_reward"`
	Status      BountyStatus    `gorm:"size:20;not null;default:OPEN;index" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Bounty) TableName() string {
	return "bounties"
}

// BountySubmission is a wallet's entry to a bounty
type BountySubmission struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	BountyID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"bounty_id"`
	Bounty        *Bounty          `gorm:"foreignKey:BountyID" json:"bounty,omitempty"`
	WalletAddress string           `gorm:"size:64;not null;index" json:"wallet_address"`
	SubmissionURL string           `gorm:"size:500;not null" json:"submission_url"`
	Status        SubmissionStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	ReviewedBy    string           `gorm:"size:64" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (BountySubmission) TableName() string {
	return "bounty_submissions"
}
