package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"civicfix/internal/auth"
	"civicfix/internal/cache"
	"civicfix/internal/errors"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

// CreateIssueInput carries a citizen submission.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Image       string
	Location    string
}

// UpdateIssueInput carries an owner edit of a pending issue.
type UpdateIssueInput struct {
	Title       string
	Description string
	Category    string
	Image       string
	Location    string
}

// IssueDetail bundles an issue with its audit trail and the legal next
// states advertised to clients.
type IssueDetail struct {
	Issue        *model.Issue          `json:"issue"`
	Timelines    []model.TimelineEntry `json:"timelines"`
	NextStatuses []model.IssueStatus   `json:"nextStatuses"`
}

// IssueService drives the issue lifecycle: creation under quota, owner
// edits, assignment, rejection, staff advancement and upvotes. Every
// mutation is authorized against the access matrix, validated against the
// transition table and committed atomically with its timeline entry.
type IssueService interface {
	Create(ctx context.Context, actor auth.Identity, in CreateIssueInput) (*model.Issue, error)
	Get(ctx context.Context, id uuid.UUID) (*IssueDetail, error)
	List(ctx context.Context, filter repository.IssueFilter) ([]model.Issue, int64, error)
	LatestResolved(ctx context.Context, limit int) ([]model.Issue, error)
	Update(ctx context.Context, actor auth.Identity, id uuid.UUID, in UpdateIssueInput) (*model.Issue, error)
	Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error
	Upvote(ctx context.Context, actor auth.Identity, id uuid.UUID) (*model.Issue, error)
	AssignStaff(ctx context.Context, actor auth.Identity, issueID uuid.UUID, staffEmail string) (*model.Issue, error)
	Reject(ctx context.Context, actor auth.Identity, issueID uuid.UUID) (*model.Issue, error)
	AdvanceStatus(ctx context.Context, actor auth.Identity, issueID uuid.UUID, newStatus model.IssueStatus) (*model.Issue, error)
	Locations(ctx context.Context, reporterEmail string) ([]string, error)
}

type issueService struct {
	issueRepo    repository.IssueRepository
	timelineRepo repository.TimelineRepository
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	access       *AccessMatrix
	cache        *cache.Client
	freeQuota    int
	// Mutex maps for per-issue and per-user locking
	issueMutexes sync.Map
	userMutexes  sync.Map
}

// NewIssueService creates a new issue service.
func NewIssueService(
	issueRepo repository.IssueRepository,
	timelineRepo repository.TimelineRepository,
	userRepo repository.UserRepository,
	categoryRepo repository.CategoryRepository,
	access *AccessMatrix,
	cache *cache.Client,
	freeQuota int,
) IssueService {
	return &issueService{
		issueRepo:    issueRepo,
		timelineRepo: timelineRepo,
		userRepo:     userRepo,
		categoryRepo: categoryRepo,
		access:       access,
		cache:        cache,
		freeQuota:    freeQuota,
	}
}

// issueMutex returns a mutex for a specific issue ID.
func (s *issueService) issueMutex(id uuid.UUID) *sync.Mutex {
	value, _ := s.issueMutexes.LoadOrStore(id.String(), &sync.Mutex{})
	return value.(*sync.Mutex)
}

// userMutex returns a mutex for a specific user email.
func (s *issueService) userMutex(email string) *sync.Mutex {
	value, _ := s.userMutexes.LoadOrStore(email, &sync.Mutex{})
	return value.(*sync.Mutex)
}

func (s *issueService) invalidateStats(ctx context.Context) {
	_ = s.cache.Delete(ctx, AdminOverviewCacheKey)
}

// Create submits a new issue for a citizen, enforcing the free-tier quota.
// The quota check, counter increment, issue row and initial timeline entry
// commit as one unit under a per-user lock, so two concurrent submissions
// cannot both pass a stale check.
func (s *issueService) Create(ctx context.Context, actor auth.Identity, in CreateIssueInput) (*model.Issue, error) {
	if err := s.access.Authorize(actor, OpCreateIssue, nil); err != nil {
		return nil, err
	}

	if _, err := s.categoryRepo.FindByName(ctx, in.Category); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: unknown category %q", errors.ErrNotFound, in.Category)
		}
		return nil, mapStoreErr(err)
	}

	mutex := s.userMutex(actor.Email)
	mutex.Lock()
	defer mutex.Unlock()

	var issue *model.Issue
	err := withRetry(ctx, func() error {
		return s.issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			user, err := s.userRepo.FindByEmailForUpdateTx(ctx, tx, actor.Email)
			if err != nil {
				return mapStoreErr(err)
			}
			if !user.IsPremium && user.IssuesCreated >= s.freeQuota {
				return errors.ErrQuotaExceeded
			}

			issue = &model.Issue{
				Title:         in.Title,
				Description:   in.Description,
				Category:      in.Category,
				Image:         in.Image,
				Location:      in.Location,
				ReporterEmail: actor.Email,
				ReporterName:  actor.DisplayName,
				Status:        model.StatusPending,
				Priority:      model.PriorityNormal,
			}
			if err := s.issueRepo.CreateTx(ctx, tx, issue); err != nil {
				return mapStoreErr(err)
			}

			user.IssuesCreated++
			if err := s.userRepo.UpdateTx(ctx, tx, user); err != nil {
				return mapStoreErr(err)
			}

			entry := &model.TimelineEntry{
				IssueID:        issue.ID,
				Status:         model.StatusPending,
				Message:        "Issue reported",
				UpdatedByEmail: actor.Email,
				UpdatedByName:  actor.DisplayName,
				UpdatedByRole:  actor.Role,
			}
			if err := s.timelineRepo.CreateTx(ctx, tx, entry); err != nil {
				return mapStoreErr(err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return issue, nil
}

// Get fetches an issue with its timeline and legal next states.
func (s *issueService) Get(ctx context.Context, id uuid.UUID) (*IssueDetail, error) {
	issue, err := s.issueRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	timelines, err := s.timelineRepo.ListByIssue(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &IssueDetail{
		Issue:        issue,
		Timelines:    timelines,
		NextStatuses: issue.Status.NextStatuses(),
	}, nil
}

// List returns a filtered, paginated issue page.
func (s *issueService) List(ctx context.Context, filter repository.IssueFilter) ([]model.Issue, int64, error) {
	issues, total, err := s.issueRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, mapStoreErr(err)
	}
	return issues, total, nil
}

// LatestResolved returns the public recently-resolved feed.
func (s *issueService) LatestResolved(ctx context.Context, limit int) ([]model.Issue, error) {
	issues, err := s.issueRepo.LatestResolved(ctx, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return issues, nil
}

// Update applies an owner edit to a pending issue.
func (s *issueService) Update(ctx context.Context, actor auth.Identity, id uuid.UUID, in UpdateIssueInput) (*model.Issue, error) {
	if in.Category != "" {
		if _, err := s.categoryRepo.FindByName(ctx, in.Category); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: unknown category %q", errors.ErrNotFound, in.Category)
			}
			return nil, mapStoreErr(err)
		}
	}

	mutex := s.issueMutex(id)
	mutex.Lock()
	defer mutex.Unlock()

	var issue *model.Issue
	err := withRetry(ctx, func() error {
		return s.issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			issue, err = s.issueRepo.FindByIDForUpdateTx(ctx, tx, id)
			if err != nil {
				return mapStoreErr(err)
			}
			if err := s.access.Authorize(actor, OpEditIssue, issue); err != nil {
				return err
			}

			issue.Title = in.Title
			issue.Description = in.Description
			if in.Category != "" {
				issue.Category = in.Category
			}
			issue.Image = in.Image
			issue.Location = in.Location
			return mapStoreErr(s.issueRepo.UpdateTx(ctx, tx, issue))
		})
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// Delete removes an issue. Owners may delete while the issue has not been
// resolved; admins always may. Rows are soft-deleted so the timeline stays
// resolvable for audit.
func (s *issueService) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	issue, err := s.issueRepo.FindByID(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := s.access.Authorize(actor, OpDeleteIssue, issue); err != nil {
		return err
	}
	// Audit retention: past resolution only an admin may delete.
	if actor.Role != model.RoleAdmin &&
		(issue.Status == model.StatusResolved || issue.Status == model.StatusClosed) {
		return errors.ErrForbidden
	}
	if err := s.issueRepo.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	s.invalidateStats(ctx)
	return nil
}

// Upvote records one vote per identity. A repeat vote is a no-op, not an
// error.
func (s *issueService) Upvote(ctx context.Context, actor auth.Identity, id uuid.UUID) (*model.Issue, error) {
	if err := s.access.Authorize(actor, OpUpvoteIssue, nil); err != nil {
		return nil, err
	}

	mutex := s.issueMutex(id)
	mutex.Lock()
	defer mutex.Unlock()

	var issue *model.Issue
	err := withRetry(ctx, func() error {
		return s.issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			issue, err = s.issueRepo.FindByIDForUpdateTx(ctx, tx, id)
			if err != nil {
				return mapStoreErr(err)
			}
			added, err := s.issueRepo.AddUpvoteTx(ctx, tx, id, actor.Email)
			if err != nil {
				return mapStoreErr(err)
			}
			if added {
				issue.UpvoteCount++
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// AssignStaff assigns a staff member to an unassigned pending issue, or
// reassigns while still pending. Assignment changes no status and writes no
// timeline entry.
func (s *issueService) AssignStaff(ctx context.Context, actor auth.Identity, issueID uuid.UUID, staffEmail string) (*model.Issue, error) {
	staff, err := s.userRepo.FindByEmail(ctx, staffEmail)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: staff %s", errors.ErrNotFound, staffEmail)
		}
		return nil, mapStoreErr(err)
	}
	if staff.Role != model.RoleStaff {
		return nil, fmt.Errorf("%w: %s is not staff", errors.ErrForbidden, staffEmail)
	}

	mutex := s.issueMutex(issueID)
	mutex.Lock()
	defer mutex.Unlock()

	var issue *model.Issue
	err = withRetry(ctx, func() error {
		return s.issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			issue, err = s.issueRepo.FindByIDForUpdateTx(ctx, tx, issueID)
			if err != nil {
				return mapStoreErr(err)
			}
			if err := s.access.Authorize(actor, OpAssignStaff, issue); err != nil {
				return err
			}
			if issue.Status != model.StatusPending {
				return errors.ErrInvalidTransition
			}
			issue.AssignedStaffEmail = staff.Email
			issue.AssignedStaffName = staff.DisplayName
			return mapStoreErr(s.issueRepo.UpdateTx(ctx, tx, issue))
		})
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// Reject moves a pending issue to the terminal rejected state.
func (s *issueService) Reject(ctx context.Context, actor auth.Identity, issueID uuid.UUID) (*model.Issue, error) {
	mutex := s.issueMutex(issueID)
	mutex.Lock()
	defer mutex.Unlock()

	var issue *model.Issue
	err := withRetry(ctx, func() error {
		return s.issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			issue, err = s.issueRepo.FindByIDForUpdateTx(ctx, tx, issueID)
			if err != nil {
				return mapStoreErr(err)
			}
			if err := s.access.Authorize(actor, OpRejectIssue, issue); err != nil {
				return err
			}
			if !issue.Status.CanTransitionTo(model.StatusRejected) {
				return errors.ErrInvalidTransition
			}

			issue.Status = model.StatusRejected
			if err := s.issueRepo.UpdateTx(ctx, tx, issue); err != nil {
				return mapStoreErr(err)
			}
			entry := &model.TimelineEntry{
				IssueID:        issue.ID,
				Status:         model.StatusRejected,
				Message:        "Issue rejected by admin",
				UpdatedByEmail: actor.Email,
				UpdatedByName:  actor.DisplayName,
				UpdatedByRole:  actor.Role,
			}
			return mapStoreErr(s.timelineRepo.CreateTx(ctx, tx, entry))
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return issue, nil
}

// AdvanceStatus moves an issue one legal step along the forward path. Only
// the assigned staff member may advance; the status change and its timeline
// entry commit together or not at all.
func (s *issueService) AdvanceStatus(ctx context.Context, actor auth.Identity, issueID uuid.UUID, newStatus model.IssueStatus) (*model.Issue, error) {
	if !newStatus.Valid() || newStatus == model.StatusRejected {
		return nil, errors.ErrInvalidTransition
	}

	mutex := s.issueMutex(issueID)
	mutex.Lock()
	defer mutex.Unlock()

	var issue *model.Issue
	err := withRetry(ctx, func() error {
		return s.issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			var err error
			issue, err = s.issueRepo.FindByIDForUpdateTx(ctx, tx, issueID)
			if err != nil {
				return mapStoreErr(err)
			}
			if err := s.access.Authorize(actor, OpAdvanceStatus, issue); err != nil {
				return err
			}
			if !issue.Status.CanTransitionTo(newStatus) {
				return errors.ErrInvalidTransition
			}

			oldStatus := issue.Status
			issue.Status = newStatus
			if err := s.issueRepo.UpdateTx(ctx, tx, issue); err != nil {
				return mapStoreErr(err)
			}
			entry := &model.TimelineEntry{
				IssueID:        issue.ID,
				Status:         newStatus,
				Message:        fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus),
				UpdatedByEmail: actor.Email,
				UpdatedByName:  actor.DisplayName,
				UpdatedByRole:  actor.Role,
			}
			return mapStoreErr(s.timelineRepo.CreateTx(ctx, tx, entry))
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)
	return issue, nil
}

// Locations returns the distinct locations a reporter has used, for the
// citizen's filter dropdown.
func (s *issueService) Locations(ctx context.Context, reporterEmail string) ([]string, error) {
	locations, err := s.issueRepo.Locations(ctx, reporterEmail)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return locations, nil
}
