package models

import (
	"time"
)

// AdminUser marks a wallet as platform staff
type AdminUser struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;size:64;not null" json:"wallet_address"`
	Role          string    `gorm:"size:20;default:ADMIN" json:"role"` // ADMIN, SUPER_ADMIN
	CreatedAt     time.Time `json:"created_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// AdminLog records administrative actions for the audit trail
type AdminLog struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AdminID      uint       `gorm:"not null;index" json:"admin_id"`
	Admin        *AdminUser `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Action       string     `gorm:"size:50;not null" json:"action"`
	TargetWallet string     `gorm:"size:64" json:"target_wallet,omitempty"`
	Details      string     `gorm:"type:text" json:"details,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
}

func (AdminLog) TableName() string {
	return "admin_logs"
}
