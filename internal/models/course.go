package models

import (
	"time"

	"github.com/google/uuid"
)

// Course represents a learning course that pays XP on completion
type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Tags        string    `gorm:"size:500" json:"tags,omitempty"` // comma-separated
	XPReward    int       `gorm:"not null;default:100" json:"xp_reward"`
	Published   bool      `gorm:"not null;default:false;index" json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseCompletion records that a wallet finished a course. The unique
// pair index keeps the completion list clean; the XP award itself is
// deduplicated by the XP service.
type CourseCompletion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_pair,priority:2" json:"course_id"`
	Course        *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	WalletAddress string    `gorm:"size:64;not null;uniqueIndex:idx_completion_pair,priority:1" json:"wallet_address"`
	CompletedAt   time.Time `gorm:"autoCreateTime" json:"completed_at"`
}

func (CourseCompletion) TableName() string {
	return "course_completions"
}
