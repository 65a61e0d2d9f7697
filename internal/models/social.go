package models

import (
	"time"

	"github.com/google/uuid"
)

type ReactionKind string

const (
	ReactionLike  ReactionKind = "LIKE"
	ReactionFire  ReactionKind = "FIRE"
	ReactionBrain ReactionKind = "BRAIN"
)

// Valid reports whether the reaction kind is supported.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionFire, ReactionBrain:
		return true
	}
	return false
}

// Post is a social feed entry
type Post struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress string    `gorm:"size:64;not null;index" json:"wallet_address"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Hidden        bool      `gorm:"not null;default:false;index" json:"hidden"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// Reaction is a single reaction on a post. One reaction of a given kind
// per (post, reactor); the post author earns reaction XP keyed by the
// reaction id.
type Reaction struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PostID        uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_once,priority:1" json:"post_id"`
	Post          *Post        `gorm:"foreignKey:PostID" json:"post,omitempty"`
	WalletAddress string       `gorm:"size:64;not null;uniqueIndex:idx_reaction_once,priority:2" json:"wallet_address"`
	Kind          ReactionKind `gorm:"size:20;not null;uniqueIndex:idx_reaction_once,priority:3" json:"kind"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (Reaction) TableName() string {
	return "reactions"
}
