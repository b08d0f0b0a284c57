package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimelineEntry is one append-only audit record of an issue's history.
// Entries are never mutated or deleted; issue creation writes the initial
// pending entry and every status transition writes exactly one more.
type TimelineEntry struct {
	ID             uuid.UUID   `json:"id" gorm:"type:char(36);primaryKey"`
	IssueID        uuid.UUID   `json:"issueId" gorm:"type:char(36);not null;index"`
	Status         IssueStatus `json:"status" gorm:"type:varchar(20);not null"`
	Message        string      `json:"message" gorm:"size:512;not null"`
	UpdatedByEmail string      `json:"updatedByEmail" gorm:"size:255;not null"`
	UpdatedByName  string      `json:"updatedByName" gorm:"size:255"`
	UpdatedByRole  Role        `json:"updatedByRole" gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (t *TimelineEntry) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
