package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OwnershipRole string

const (
	RoleViewer OwnershipRole = "viewer"
	RoleEditor OwnershipRole = "editor"
	RoleOwner  OwnershipRole = "owner"
)

// Level orders roles: viewer < editor < owner. Unknown roles rank below viewer.
func (r OwnershipRole) Level() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleEditor:
		return 2
	case RoleOwner:
		return 3
	default:
		return 0
	}
}

func (r OwnershipRole) HasPermissionFor(required OwnershipRole) bool {
	return r.Level() >= required.Level()
}

func (r OwnershipRole) IsValid() bool {
	return r.Level() > 0
}

type QuizOwnership struct {
	ID        uuid.UUID     `json:"ownership_id" gorm:"type:uuid;primaryKey"`
	QuizID    uuid.UUID     `json:"quiz_id" gorm:"type:uuid;not null;uniqueIndex:uq_ownership_quiz_user,priority:1"`
	UserID    uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:uq_ownership_quiz_user,priority:2;index"`
	Role      OwnershipRole `json:"role" gorm:"size:20;not null"`
	CreatedAt time.Time     `json:"created_at"`
}

func (QuizOwnership) TableName() string { return "quiz_ownerships" }

func (o *QuizOwnership) BeforeCreate(tx *gorm.DB) error {
	AssignID(&o.ID)
	return nil
}

// ShareLink grants viewer ownership to whoever redeems its token.
type ShareLink struct {
	ID          uuid.UUID  `json:"share_link_id" gorm:"type:uuid;primaryKey"`
	QuizID      uuid.UUID  `json:"quiz_id" gorm:"type:uuid;not null;index"`
	Token       string     `json:"token" gorm:"size:64;not null;uniqueIndex"`
	CreatedBy   uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MaxUses     *int       `json:"max_uses"`
	CurrentUses int        `json:"current_uses" gorm:"not null;default:0"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (ShareLink) TableName() string { return "share_links" }

func (l *ShareLink) BeforeCreate(tx *gorm.DB) error {
	AssignID(&l.ID)
	return nil
}

func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

func (l *ShareLink) IsExhausted() bool {
	return l.MaxUses != nil && l.CurrentUses >= *l.MaxUses
}
