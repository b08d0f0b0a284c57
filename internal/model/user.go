package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the portal role of a user. Roles are mutually exclusive and only
// admins may change them.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered portal user.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	DisplayName  string         `json:"displayName" gorm:"size:255;not null"`
	PhotoURL     string         `json:"photoURL" gorm:"size:512"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         Role           `json:"role" gorm:"type:varchar(20);not null;default:'citizen';index"`
	IsBlocked    bool           `json:"isBlocked" gorm:"default:false;index"`
	IsPremium    bool           `json:"isPremium" gorm:"default:false"`
	// IssuesCreated is a running creation counter. It is never decremented,
	// so deleting issues does not free quota.
	IssuesCreated int            `json:"issuesCreated" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
