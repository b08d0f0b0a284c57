package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicfix/internal/model"
)

// TimelineRepository defines the append-only audit trail operations.
// Entries are only ever created inside the transaction that applies the
// status change they record, and only ever read back in order.
type TimelineRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, entry *model.TimelineEntry) error
	ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.TimelineEntry, error)
	CountByIssue(ctx context.Context, issueID uuid.UUID) (int64, error)
}

type timelineRepository struct {
	db *gorm.DB
}

// NewTimelineRepository creates a new timeline repository.
func NewTimelineRepository(db *gorm.DB) TimelineRepository {
	return &timelineRepository{db: db}
}

// CreateTx appends a timeline entry within a transaction.
func (r *timelineRepository) CreateTx(ctx context.Context, tx *gorm.DB, entry *model.TimelineEntry) error {
	return tx.WithContext(ctx).Create(entry).Error
}

// ListByIssue returns an issue's timeline in forward-chronological order.
func (r *timelineRepository) ListByIssue(ctx context.Context, issueID uuid.UUID) ([]model.TimelineEntry, error) {
	var entries []model.TimelineEntry
	if err := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByIssue returns the number of timeline entries for an issue.
func (r *timelineRepository) CountByIssue(ctx context.Context, issueID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.TimelineEntry{}).
		Where("issue_id = ?", issueID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
