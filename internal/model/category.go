package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is a named issue category. Issues keep a denormalized category
// name, so deleting a category does not cascade.
type Category struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	CategoryName string         `json:"categoryName" gorm:"uniqueIndex;size:255;not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// IssuesCount is a read-only aggregate filled by queries, not a column.
	IssuesCount int64 `json:"issuesCount" gorm:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
