package models

import (
	"time"

	"github.com/google/uuid"
)

type XPSource string

const (
	XPSourceCourse     XPSource = "COURSE"
	XPSourceBounty     XPSource = "BOUNTY"
	XPSourceDailyLogin XPSource = "DAILY_LOGIN"
	XPSourceReaction   XPSource = "REACTION"
	XPSourceAdminGrant XPSource = "ADMIN_GRANT"
	XPSourceOther      XPSource = "OTHER"
)

// Valid reports whether the source is one of the known award sources.
func (s XPSource) Valid() bool {
	switch s {
	case XPSourceCourse, XPSourceBounty, XPSourceDailyLogin,
		XPSourceReaction, XPSourceAdminGrant, XPSourceOther:
		return true
	}
	return false
}

// XPAward is the durable proof that a specific accomplishment was paid
// once. The composite unique index on (wallet, source, ref) is what
// makes duplicate awards a no-op: the insert either wins the reservation
// or observes the prior row.
type XPAward struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"size:64;not null;uniqueIndex:idx_award_tuple,priority:1;index:idx_award_wallet_day,priority:1" json:"wallet_address"`
	SourceType    XPSource  `gorm:"size:20;not null;uniqueIndex:idx_award_tuple,priority:2" json:"source_type"`
	SourceRef     string    `gorm:"size:128;not null;uniqueIndex:idx_award_tuple,priority:3" json:"source_ref"`
	Requested     int       `gorm:"not null" json:"requested"`
	XPAwarded     int       `gorm:"not null" json:"xp_awarded"`
	Reason        string    `gorm:"size:255" json:"reason,omitempty"`
	AwardedAt     time.Time `gorm:"not null;index:idx_award_wallet_day,priority:2" json:"awarded_at"`
}

func (XPAward) TableName() string {
	return "xp_awards"
}

// XPActivity is the append-only audit trail of XP changes. Writes are
// best-effort via the worker pool and never block or roll back an award.
type XPActivity struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress string    `gorm:"size:64;not null;index" json:"wallet_address"`
	SourceType    XPSource  `gorm:"size:20;not null" json:"source_type"`
	SourceRef     string    `gorm:"size:128;not null" json:"source_ref"`
	Requested     int       `gorm:"not null" json:"requested"`
	Granted       int       `gorm:"not null" json:"granted"`
	XPBefore      int       `gorm:"not null" json:"xp_before"`
	XPAfter       int       `gorm:"not null" json:"xp_after"`
	LeveledUp     bool      `gorm:"not null;default:false" json:"leveled_up"`
	Reason        string    `gorm:"size:255" json:"reason,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (XPActivity) TableName() string {
	return "xp_activities"
}
