package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicfix/internal/auth"
	"civicfix/internal/errors"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

// UserService handles profile reads and the admin user-management surface.
type UserService interface {
	GetProfile(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, actor auth.Identity, displayName, photoURL string) (*model.User, error)
	ListByRole(ctx context.Context, actor auth.Identity, role model.Role, search string) ([]model.User, error)
	ChangeRole(ctx context.Context, actor auth.Identity, userID uuid.UUID, role model.Role) (*model.User, error)
	SetBlocked(ctx context.Context, actor auth.Identity, userID uuid.UUID, blocked bool) (*model.User, error)
	Delete(ctx context.Context, actor auth.Identity, userID uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	access   *AccessMatrix
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, access *AccessMatrix) UserService {
	return &userService{userRepo: userRepo, access: access}
}

// GetProfile returns a user's own profile record.
func (s *userService) GetProfile(ctx context.Context, email string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// UpdateProfile lets any identity change its own display name and photo.
// Email, role, block and premium flags are not touchable here.
func (s *userService) UpdateProfile(ctx context.Context, actor auth.Identity, displayName, photoURL string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, actor.Email)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if displayName != "" {
		user.DisplayName = displayName
	}
	if photoURL != "" {
		user.PhotoURL = photoURL
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// ListByRole lists users of one role for the admin dashboards.
func (s *userService) ListByRole(ctx context.Context, actor auth.Identity, role model.Role, search string) ([]model.User, error) {
	if err := s.access.Authorize(actor, OpManageUsers, nil); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByRole(ctx, role, search)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return users, nil
}

// ChangeRole sets a user's role. Roles are mutually exclusive and
// admin-assignable only.
func (s *userService) ChangeRole(ctx context.Context, actor auth.Identity, userID uuid.UUID, role model.Role) (*model.User, error) {
	if err := s.access.Authorize(actor, OpManageUsers, nil); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", errors.ErrForbidden, role)
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// SetBlocked blocks or unblocks a citizen. Blocking is only meaningful for
// citizens; staff and admins cannot be blocked.
func (s *userService) SetBlocked(ctx context.Context, actor auth.Identity, userID uuid.UUID, blocked bool) (*model.User, error) {
	if err := s.access.Authorize(actor, OpManageUsers, nil); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if user.Role != model.RoleCitizen {
		return nil, fmt.Errorf("%w: only citizens can be blocked", errors.ErrForbidden)
	}
	user.IsBlocked = blocked
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, mapStoreErr(err)
	}
	return user, nil
}

// Delete hard-removes a user. Blocking is the preferred soft-disable; this
// is the admin's destructive override.
func (s *userService) Delete(ctx context.Context, actor auth.Identity, userID uuid.UUID) error {
	if err := s.access.Authorize(actor, OpManageUsers, nil); err != nil {
		return err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrNotFound
		}
		return mapStoreErr(err)
	}
	return mapStoreErr(s.userRepo.Delete(ctx, userID))
}
