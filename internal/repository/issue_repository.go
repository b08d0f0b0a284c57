package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"civicfix/internal/model"
)

// IssueFilter narrows issue listings. Zero values mean "no filter".
type IssueFilter struct {
	Status             model.IssueStatus
	Priority           model.IssuePriority
	Category           string
	Location           string
	Search             string
	ReporterEmail      string
	AssignedStaffEmail string
	Page               int
	Limit              int
	// SortByUpvotes orders by upvote count instead of recency.
	SortByUpvotes bool
}

// IssueRepository defines issue persistence operations.
type IssueRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]model.Issue, int64, error)
	LatestResolved(ctx context.Context, limit int) ([]model.Issue, error)
	Latest(ctx context.Context, limit int) ([]model.Issue, error)
	Locations(ctx context.Context, reporterEmail string) ([]string, error)
	CountByStatus(ctx context.Context, filter IssueFilter) (map[model.IssueStatus]int64, error)
	CountByPriority(ctx context.Context) (map[model.IssuePriority]int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	CreateTx(ctx context.Context, tx *gorm.DB, issue *model.Issue) error
	FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Issue, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, issue *model.Issue) error
	// AddUpvoteTx inserts a vote row and bumps the counter. Returns false
	// without error when this identity already voted.
	AddUpvoteTx(ctx context.Context, tx *gorm.DB, issueID uuid.UUID, voterEmail string) (bool, error)
}

type issueRepository struct {
	db *gorm.DB
}

// NewIssueRepository creates a new issue repository.
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

// FindByID finds an issue by ID.
func (r *issueRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	var issue model.Issue
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) applyFilter(q *gorm.DB, filter IssueFilter) *gorm.DB {
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Location != "" {
		q = q.Where("location LIKE ?", "%"+filter.Location+"%")
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", like, like)
	}
	if filter.ReporterEmail != "" {
		q = q.Where("reporter_email = ?", filter.ReporterEmail)
	}
	if filter.AssignedStaffEmail != "" {
		q = q.Where("assigned_staff_email = ?", filter.AssignedStaffEmail)
	}
	return q
}

// List returns a filtered, paginated issue page plus the unpaginated total.
func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]model.Issue, int64, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&model.Issue{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if filter.SortByUpvotes {
		order = "upvote_count DESC, created_at DESC"
	}
	q = q.Order(order)

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
		if filter.Page > 1 {
			q = q.Offset((filter.Page - 1) * filter.Limit)
		}
	}

	var issues []model.Issue
	if err := q.Find(&issues).Error; err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

// LatestResolved returns the most recently resolved issues for the public feed.
func (r *issueRepository) LatestResolved(ctx context.Context, limit int) ([]model.Issue, error) {
	var issues []model.Issue
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []model.IssueStatus{model.StatusResolved, model.StatusClosed}).
		Order("updated_at DESC").Limit(limit).Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// Latest returns the most recently reported issues.
func (r *issueRepository) Latest(ctx context.Context, limit int) ([]model.Issue, error) {
	var issues []model.Issue
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// Locations returns the distinct locations a reporter has used.
func (r *issueRepository) Locations(ctx context.Context, reporterEmail string) ([]string, error) {
	var locations []string
	if err := r.db.WithContext(ctx).Model(&model.Issue{}).
		Where("reporter_email = ? AND location <> ''", reporterEmail).
		Distinct("location").Pluck("location", &locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// CountByStatus returns issue counts grouped by status within the filter scope.
func (r *issueRepository) CountByStatus(ctx context.Context, filter IssueFilter) (map[model.IssueStatus]int64, error) {
	type row struct {
		Status model.IssueStatus
		Count  int64
	}
	var rows []row
	q := r.applyFilter(r.db.WithContext(ctx).Model(&model.Issue{}), filter)
	if err := q.Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.IssueStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

// CountByPriority returns issue counts grouped by priority.
func (r *issueRepository) CountByPriority(ctx context.Context) (map[model.IssuePriority]int64, error) {
	type row struct {
		Priority model.IssuePriority
		Count    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.Issue{}).
		Select("priority, COUNT(*) as count").Group("priority").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.IssuePriority]int64, len(rows))
	for _, r := range rows {
		counts[r.Priority] = r.Count
	}
	return counts, nil
}

// CountByCategory returns issue counts grouped by the denormalized category name.
func (r *issueRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Category string
		Count    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.Issue{}).
		Select("category, COUNT(*) as count").Group("category").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Count
	}
	return counts, nil
}

// Delete soft-deletes an issue. Timeline rows are kept for audit.
func (r *issueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Issue{}, "id = ?", id).Error
}

// WithTransaction executes a function within a database transaction.
func (r *issueRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// CreateTx creates an issue within a transaction.
func (r *issueRepository) CreateTx(ctx context.Context, tx *gorm.DB, issue *model.Issue) error {
	return tx.WithContext(ctx).Create(issue).Error
}

// FindByIDForUpdateTx finds an issue by ID with a row-level lock within a transaction.
func (r *issueRepository) FindByIDForUpdateTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Issue, error) {
	var issue model.Issue
	if err := tx.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", id).First(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// UpdateTx updates an issue within a transaction.
func (r *issueRepository) UpdateTx(ctx context.Context, tx *gorm.DB, issue *model.Issue) error {
	return tx.WithContext(ctx).Save(issue).Error
}

// AddUpvoteTx inserts a vote row and bumps the counter atomically. The
// unique (issue_id, voter_email) index turns a repeat vote into a no-op.
func (r *issueRepository) AddUpvoteTx(ctx context.Context, tx *gorm.DB, issueID uuid.UUID, voterEmail string) (bool, error) {
	vote := model.IssueUpvote{IssueID: issueID, VoterEmail: voterEmail}
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := tx.WithContext(ctx).Model(&model.Issue{}).
		Where("id = ?", issueID).
		UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).Error; err != nil {
		return false, err
	}
	return true, nil
}
