package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicfix/internal/auth"
	"civicfix/internal/errors"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

// CategoryService manages the category registry.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, actor auth.Identity, name string) (*model.Category, error)
	Rename(ctx context.Context, actor auth.Identity, id uuid.UUID, name string) (*model.Category, error)
	Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	issueRepo    repository.IssueRepository
	access       *AccessMatrix
}

// NewCategoryService creates a new category service.
func NewCategoryService(categoryRepo repository.CategoryRepository, issueRepo repository.IssueRepository, access *AccessMatrix) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, issueRepo: issueRepo, access: access}
}

// List returns all categories with their derived issue counts.
func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	counts, err := s.issueRepo.CountByCategory(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	for i := range categories {
		categories[i].IssuesCount = counts[categories[i].CategoryName]
	}
	return categories, nil
}

// Create adds a category with a unique name.
func (s *categoryService) Create(ctx context.Context, actor auth.Identity, name string) (*model.Category, error) {
	if err := s.access.Authorize(actor, OpManageCategories, nil); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.FindByName(ctx, name); err == nil {
		return nil, errors.ErrCategoryExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, mapStoreErr(err)
	}

	category := &model.Category{CategoryName: name}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, mapStoreErr(err)
	}
	return category, nil
}

// Rename changes a category's name. Existing issues keep the denormalized
// old name.
func (s *categoryService) Rename(ctx context.Context, actor auth.Identity, id uuid.UUID, name string) (*model.Category, error) {
	if err := s.access.Authorize(actor, OpManageCategories, nil); err != nil {
		return nil, err
	}
	if existing, err := s.categoryRepo.FindByName(ctx, name); err == nil && existing.ID != id {
		return nil, errors.ErrCategoryExists
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, mapStoreErr(err)
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	category.CategoryName = name
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, mapStoreErr(err)
	}
	return category, nil
}

// Delete removes a category. Issues are not cascade-deleted.
func (s *categoryService) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if err := s.access.Authorize(actor, OpManageCategories, nil); err != nil {
		return err
	}
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	return mapStoreErr(s.categoryRepo.Delete(ctx, id))
}
