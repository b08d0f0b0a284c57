package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicfix/internal/model"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListByRole(ctx context.Context, role model.Role, search string) ([]model.User, error)
	Latest(ctx context.Context, limit int) ([]model.User, error)
	CountByRole(ctx context.Context) (map[model.Role]int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	FindByEmailForUpdateTx(ctx context.Context, tx *gorm.DB, email string) (*model.User, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindByID finds a user by ID.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole lists users of a role, optionally matching name or email.
func (r *userRepository) ListByRole(ctx context.Context, role model.Role, search string) ([]model.User, error) {
	q := r.db.WithContext(ctx).Where("role = ?", role)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("display_name LIKE ? OR email LIKE ?", like, like)
	}
	var users []model.User
	if err := q.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Latest returns the most recently registered users.
func (r *userRepository) Latest(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole returns user counts grouped by role.
func (r *userRepository) CountByRole(ctx context.Context) (map[model.Role]int64, error) {
	type row struct {
		Role  model.Role
		Count int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("role, COUNT(*) as count").Group("role").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.Role]int64, len(rows))
	for _, r := range rows {
		counts[r.Role] = r.Count
	}
	return counts, nil
}

// Delete soft-deletes a user.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id).Error
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// FindByEmailForUpdateTx finds a user by email with a row-level lock within a transaction.
func (r *userRepository) FindByEmailForUpdateTx(ctx context.Context, tx *gorm.DB, email string) (*model.User, error) {
	var user model.User
	if err := tx.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateTx updates a user within a transaction.
func (r *userRepository) UpdateTx(ctx context.Context, tx *gorm.DB, user *model.User) error {
	return tx.WithContext(ctx).Save(user).Error
}
