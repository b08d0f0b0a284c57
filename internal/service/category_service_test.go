package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"civicfix/internal/auth"
	"civicfix/internal/errors"
	"civicfix/internal/model"
)

func TestCategoryService_Create(t *testing.T) {
	admin := auth.Identity{Email: "admin@example.com", Role: model.RoleAdmin}

	t.Run("creates unique category", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("FindByName", mock.Anything, "Roads").Return(nil, gorm.ErrRecordNotFound)
		categoryRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
			return c.CategoryName == "Roads"
		})).Return(nil)

		svc := NewCategoryService(categoryRepo, new(MockIssueRepository), NewAccessMatrix(true))
		category, err := svc.Create(context.Background(), admin, "Roads")
		assert.NoError(t, err)
		assert.Equal(t, "Roads", category.CategoryName)
	})

	t.Run("duplicate name", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("FindByName", mock.Anything, "Roads").Return(&model.Category{CategoryName: "Roads"}, nil)

		svc := NewCategoryService(categoryRepo, new(MockIssueRepository), NewAccessMatrix(true))
		_, err := svc.Create(context.Background(), admin, "Roads")
		assert.ErrorIs(t, err, errors.ErrCategoryExists)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		svc := NewCategoryService(new(MockCategoryRepository), new(MockIssueRepository), NewAccessMatrix(true))
		staff := auth.Identity{Email: "staff@example.com", Role: model.RoleStaff}
		_, err := svc.Create(context.Background(), staff, "Roads")
		assert.ErrorIs(t, err, errors.ErrForbidden)
	})
}

func TestCategoryService_Rename(t *testing.T) {
	admin := auth.Identity{Email: "admin@example.com", Role: model.RoleAdmin}
	id := uuid.New()

	t.Run("rename to free name", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("FindByName", mock.Anything, "Potholes").Return(nil, gorm.ErrRecordNotFound)
		categoryRepo.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, CategoryName: "Roads"}, nil)
		categoryRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
			return c.CategoryName == "Potholes"
		})).Return(nil)

		svc := NewCategoryService(categoryRepo, new(MockIssueRepository), NewAccessMatrix(true))
		category, err := svc.Rename(context.Background(), admin, id, "Potholes")
		assert.NoError(t, err)
		assert.Equal(t, "Potholes", category.CategoryName)
	})

	t.Run("rename to own name is allowed", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("FindByName", mock.Anything, "Roads").Return(&model.Category{ID: id, CategoryName: "Roads"}, nil)
		categoryRepo.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, CategoryName: "Roads"}, nil)
		categoryRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := NewCategoryService(categoryRepo, new(MockIssueRepository), NewAccessMatrix(true))
		_, err := svc.Rename(context.Background(), admin, id, "Roads")
		assert.NoError(t, err)
	})

	t.Run("name taken by another category", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		categoryRepo.On("FindByName", mock.Anything, "Drainage").Return(&model.Category{ID: uuid.New(), CategoryName: "Drainage"}, nil)

		svc := NewCategoryService(categoryRepo, new(MockIssueRepository), NewAccessMatrix(true))
		_, err := svc.Rename(context.Background(), admin, id, "Drainage")
		assert.ErrorIs(t, err, errors.ErrCategoryExists)
	})
}

func TestCategoryService_List(t *testing.T) {
	categoryRepo := new(MockCategoryRepository)
	issueRepo := new(MockIssueRepository)

	categoryRepo.On("List", mock.Anything).Return([]model.Category{
		{CategoryName: "Roads"},
		{CategoryName: "Drainage"},
	}, nil)
	issueRepo.On("CountByCategory", mock.Anything).Return(map[string]int64{"Roads": 7}, nil)

	svc := NewCategoryService(categoryRepo, issueRepo, NewAccessMatrix(true))
	categories, err := svc.List(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), categories[0].IssuesCount)
	assert.Equal(t, int64(0), categories[1].IssuesCount)
}
