package models

import (
	"time"
)

// Account represents a wallet-keyed user account. The wallet address is
// the natural key and is never reassigned. TotalXP only changes through
// the XP service, which recomputes Level in the same transaction.
type Account struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	DisplayName   string    `gorm:"size:100" json:"display_name"`
	TotalXP       int       `gorm:"not null;default:0;index" json:"total_xp"`
	Level         int       `gorm:"not null;default:1" json:"level"`
	Squad         string    `gorm:"size:50;index" json:"squad,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}

// LeaderboardEntry is a single computed row of the leaderboard.
// Never persisted; always derived from account state.
type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	WalletAddress string `json:"wallet_address"`
	DisplayName   string `json:"display_name"`
	TotalXP       int    `json:"total_xp"`
	Level         int    `json:"level"`
}

// LeaderboardResponse is the paginated leaderboard payload
type LeaderboardResponse struct {
	Data   []LeaderboardEntry `json:"data"`
	Offset int                `json:"offset"`
	Limit  int                `json:"limit"`
	Total  int64              `json:"total"`
}

// RankDetail is the result of a single-wallet rank lookup, with a
// symmetric window of neighboring ranks for context.
type RankDetail struct {
	Entry     LeaderboardEntry   `json:"entry"`
	Neighbors []LeaderboardEntry `json:"neighbors"`
}
