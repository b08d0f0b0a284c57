package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"civicfix/internal/auth"
	"civicfix/internal/errors"
	"civicfix/internal/model"
)

const testFreeQuota = 3

func newTestIssueService(
	issueRepo *MockIssueRepository,
	timelineRepo *MockTimelineRepository,
	userRepo *MockUserRepository,
	categoryRepo *MockCategoryRepository,
) IssueService {
	return NewIssueService(issueRepo, timelineRepo, userRepo, categoryRepo, NewAccessMatrix(true), nil, testFreeQuota)
}

func TestIssueService_Create_Quota(t *testing.T) {
	citizen := auth.Identity{Email: "citizen@example.com", DisplayName: "Citizen", Role: model.RoleCitizen}

	tests := []struct {
		name          string
		issuesCreated int
		isPremium     bool
		wantErr       error
	}{
		{"first issue", 0, false, nil},
		{"third issue fills the free tier", 2, false, nil},
		{"fourth issue exceeds quota", 3, false, errors.ErrQuotaExceeded},
		{"premium bypasses quota", 7, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueRepo := new(MockIssueRepository)
			timelineRepo := new(MockTimelineRepository)
			userRepo := new(MockUserRepository)
			categoryRepo := new(MockCategoryRepository)

			categoryRepo.On("FindByName", mock.Anything, "Roads").Return(&model.Category{CategoryName: "Roads"}, nil)
			userRepo.On("FindByEmailForUpdateTx", mock.Anything, mock.Anything, citizen.Email).Return(&model.User{
				Email:         citizen.Email,
				Role:          model.RoleCitizen,
				IsPremium:     tt.isPremium,
				IssuesCreated: tt.issuesCreated,
			}, nil)
			if tt.wantErr == nil {
				issueRepo.On("CreateTx", mock.Anything, mock.Anything, mock.AnythingOfType("*model.Issue")).Return(nil)
				userRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.IssuesCreated == tt.issuesCreated+1
				})).Return(nil)
				timelineRepo.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e *model.TimelineEntry) bool {
					return e.Status == model.StatusPending && e.UpdatedByEmail == citizen.Email
				})).Return(nil)
			}

			svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)
			issue, err := svc.Create(context.Background(), citizen, CreateIssueInput{
				Title:       "Pothole",
				Description: "Deep pothole",
				Category:    "Roads",
				Location:    "Mirpur",
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, issue)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusPending, issue.Status)
				assert.Equal(t, model.PriorityNormal, issue.Priority)
				assert.Equal(t, citizen.Email, issue.ReporterEmail)
			}
			issueRepo.AssertExpectations(t)
			userRepo.AssertExpectations(t)
			timelineRepo.AssertExpectations(t)
		})
	}
}

func TestIssueService_Create_Denied(t *testing.T) {
	issueRepo := new(MockIssueRepository)
	timelineRepo := new(MockTimelineRepository)
	userRepo := new(MockUserRepository)
	categoryRepo := new(MockCategoryRepository)
	svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)

	blocked := auth.Identity{Email: "blocked@example.com", Role: model.RoleCitizen, IsBlocked: true}
	_, err := svc.Create(context.Background(), blocked, CreateIssueInput{Title: "x", Description: "y", Category: "Roads"})
	assert.ErrorIs(t, err, errors.ErrUserBlocked)

	staff := auth.Identity{Email: "staff@example.com", Role: model.RoleStaff}
	_, err = svc.Create(context.Background(), staff, CreateIssueInput{Title: "x", Description: "y", Category: "Roads"})
	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestIssueService_Create_UnknownCategory(t *testing.T) {
	issueRepo := new(MockIssueRepository)
	timelineRepo := new(MockTimelineRepository)
	userRepo := new(MockUserRepository)
	categoryRepo := new(MockCategoryRepository)
	categoryRepo.On("FindByName", mock.Anything, "Nope").Return(nil, gorm.ErrRecordNotFound)

	svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)
	citizen := auth.Identity{Email: "citizen@example.com", Role: model.RoleCitizen}
	_, err := svc.Create(context.Background(), citizen, CreateIssueInput{Title: "x", Description: "y", Category: "Nope"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

// Assignment changes no status and writes no timeline entry, so after
// assign + one advance the trail is exactly creation + transition.
func TestIssueService_AssignStaff(t *testing.T) {
	admin := auth.Identity{Email: "admin@example.com", Role: model.RoleAdmin}
	issueID := uuid.New()

	tests := []struct {
		name    string
		status  model.IssueStatus
		wantErr error
	}{
		{"assign pending issue", model.StatusPending, nil},
		{"cannot assign once in progress", model.StatusInProgress, errors.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueRepo := new(MockIssueRepository)
			timelineRepo := new(MockTimelineRepository)
			userRepo := new(MockUserRepository)
			categoryRepo := new(MockCategoryRepository)

			userRepo.On("FindByEmail", mock.Anything, "staff@example.com").Return(&model.User{
				Email:       "staff@example.com",
				DisplayName: "Staff Member",
				Role:        model.RoleStaff,
			}, nil)
			issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).Return(&model.Issue{
				ID:     issueID,
				Status: tt.status,
			}, nil)
			if tt.wantErr == nil {
				issueRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(i *model.Issue) bool {
					return i.AssignedStaffEmail == "staff@example.com" && i.Status == model.StatusPending
				})).Return(nil)
			}

			svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)
			issue, err := svc.AssignStaff(context.Background(), admin, issueID, "staff@example.com")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "staff@example.com", issue.AssignedStaffEmail)
			}
			timelineRepo.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
			issueRepo.AssertExpectations(t)
		})
	}
}

func TestIssueService_AssignStaff_NotStaff(t *testing.T) {
	issueRepo := new(MockIssueRepository)
	timelineRepo := new(MockTimelineRepository)
	userRepo := new(MockUserRepository)
	categoryRepo := new(MockCategoryRepository)

	userRepo.On("FindByEmail", mock.Anything, "citizen@example.com").Return(&model.User{
		Email: "citizen@example.com",
		Role:  model.RoleCitizen,
	}, nil)

	svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)
	admin := auth.Identity{Email: "admin@example.com", Role: model.RoleAdmin}
	_, err := svc.AssignStaff(context.Background(), admin, uuid.New(), "citizen@example.com")
	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestIssueService_AdvanceStatus(t *testing.T) {
	staff := auth.Identity{Email: "staff@example.com", DisplayName: "Staff", Role: model.RoleStaff}
	otherStaff := auth.Identity{Email: "other@example.com", Role: model.RoleStaff}
	issueID := uuid.New()

	tests := []struct {
		name      string
		actor     auth.Identity
		from      model.IssueStatus
		to        model.IssueStatus
		wantErr   error
		wantEntry bool
	}{
		{"pending to in_progress", staff, model.StatusPending, model.StatusInProgress, nil, true},
		{"working to resolved", staff, model.StatusWorking, model.StatusResolved, nil, true},
		{"skip step rejected", staff, model.StatusPending, model.StatusResolved, errors.ErrInvalidTransition, false},
		{"backwards rejected", staff, model.StatusResolved, model.StatusWorking, errors.ErrInvalidTransition, false},
		{"staff cannot reject", staff, model.StatusPending, model.StatusRejected, errors.ErrInvalidTransition, false},
		{"non-assigned staff forbidden", otherStaff, model.StatusPending, model.StatusInProgress, errors.ErrForbidden, false},
		{"closed is terminal", staff, model.StatusClosed, model.StatusPending, errors.ErrInvalidTransition, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueRepo := new(MockIssueRepository)
			timelineRepo := new(MockTimelineRepository)
			userRepo := new(MockUserRepository)
			categoryRepo := new(MockCategoryRepository)

			issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).Return(&model.Issue{
				ID:                 issueID,
				Status:             tt.from,
				AssignedStaffEmail: staff.Email,
			}, nil).Maybe()
			if tt.wantErr == nil {
				issueRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(i *model.Issue) bool {
					return i.Status == tt.to
				})).Return(nil)
			}
			if tt.wantEntry {
				timelineRepo.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e *model.TimelineEntry) bool {
					return e.Status == tt.to && e.UpdatedByRole == model.RoleStaff
				})).Return(nil)
			}

			svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)
			issue, err := svc.AdvanceStatus(context.Background(), tt.actor, issueID, tt.to)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, issue.Status)
			}
			issueRepo.AssertExpectations(t)
			timelineRepo.AssertExpectations(t)
		})
	}
}

func TestIssueService_Reject(t *testing.T) {
	admin := auth.Identity{Email: "admin@example.com", DisplayName: "Admin", Role: model.RoleAdmin}
	issueID := uuid.New()

	tests := []struct {
		name    string
		status  model.IssueStatus
		wantErr error
	}{
		{"reject pending", model.StatusPending, nil},
		{"cannot reject in_progress", model.StatusInProgress, errors.ErrInvalidTransition},
		{"cannot reject resolved", model.StatusResolved, errors.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueRepo := new(MockIssueRepository)
			timelineRepo := new(MockTimelineRepository)
			userRepo := new(MockUserRepository)
			categoryRepo := new(MockCategoryRepository)

			issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).Return(&model.Issue{
				ID:     issueID,
				Status: tt.status,
			}, nil)
			if tt.wantErr == nil {
				issueRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(i *model.Issue) bool {
					return i.Status == model.StatusRejected
				})).Return(nil)
				timelineRepo.On("CreateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(e *model.TimelineEntry) bool {
					return e.Status == model.StatusRejected && e.UpdatedByRole == model.RoleAdmin
				})).Return(nil)
			}

			svc := newTestIssueService(issueRepo, timelineRepo, userRepo, categoryRepo)
			issue, err := svc.Reject(context.Background(), admin, issueID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusRejected, issue.Status)
			}
			issueRepo.AssertExpectations(t)
			timelineRepo.AssertExpectations(t)
		})
	}
}

func TestIssueService_Upvote(t *testing.T) {
	voter := auth.Identity{Email: "voter@example.com", Role: model.RoleCitizen}
	issueID := uuid.New()

	t.Run("first vote increments", func(t *testing.T) {
		issueRepo := new(MockIssueRepository)
		issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).Return(&model.Issue{ID: issueID, UpvoteCount: 4}, nil)
		issueRepo.On("AddUpvoteTx", mock.Anything, mock.Anything, issueID, voter.Email).Return(true, nil)

		svc := newTestIssueService(issueRepo, new(MockTimelineRepository), new(MockUserRepository), new(MockCategoryRepository))
		issue, err := svc.Upvote(context.Background(), voter, issueID)
		assert.NoError(t, err)
		assert.Equal(t, 5, issue.UpvoteCount)
	})

	t.Run("repeat vote is a no-op", func(t *testing.T) {
		issueRepo := new(MockIssueRepository)
		issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).Return(&model.Issue{ID: issueID, UpvoteCount: 5}, nil)
		issueRepo.On("AddUpvoteTx", mock.Anything, mock.Anything, issueID, voter.Email).Return(false, nil)

		svc := newTestIssueService(issueRepo, new(MockTimelineRepository), new(MockUserRepository), new(MockCategoryRepository))
		issue, err := svc.Upvote(context.Background(), voter, issueID)
		assert.NoError(t, err)
		assert.Equal(t, 5, issue.UpvoteCount)
	})
}

func TestIssueService_Upvote_RetriesTransientFailure(t *testing.T) {
	voter := auth.Identity{Email: "voter@example.com", Role: model.RoleCitizen}
	issueID := uuid.New()

	issueRepo := new(MockIssueRepository)
	issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).
		Return(nil, stderrors.New("deadlock found")).Once()
	issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).
		Return(&model.Issue{ID: issueID}, nil).Once()
	issueRepo.On("AddUpvoteTx", mock.Anything, mock.Anything, issueID, voter.Email).Return(true, nil)

	svc := newTestIssueService(issueRepo, new(MockTimelineRepository), new(MockUserRepository), new(MockCategoryRepository))
	issue, err := svc.Upvote(context.Background(), voter, issueID)
	assert.NoError(t, err)
	assert.Equal(t, 1, issue.UpvoteCount)
	issueRepo.AssertExpectations(t)
}

func TestIssueService_Update_OwnerOnlyWhilePending(t *testing.T) {
	owner := auth.Identity{Email: "owner@example.com", Role: model.RoleCitizen}
	issueID := uuid.New()

	tests := []struct {
		name    string
		issue   *model.Issue
		wantErr error
	}{
		{"owner edits pending", &model.Issue{ID: issueID, ReporterEmail: owner.Email, Status: model.StatusPending}, nil},
		{"edit blocked once assigned work started", &model.Issue{ID: issueID, ReporterEmail: owner.Email, Status: model.StatusInProgress}, errors.ErrForbidden},
		{"foreign issue", &model.Issue{ID: issueID, ReporterEmail: "else@example.com", Status: model.StatusPending}, errors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueRepo := new(MockIssueRepository)
			issueRepo.On("FindByIDForUpdateTx", mock.Anything, mock.Anything, issueID).Return(tt.issue, nil)
			if tt.wantErr == nil {
				issueRepo.On("UpdateTx", mock.Anything, mock.Anything, mock.MatchedBy(func(i *model.Issue) bool {
					return i.Title == "New title"
				})).Return(nil)
			}

			svc := newTestIssueService(issueRepo, new(MockTimelineRepository), new(MockUserRepository), new(MockCategoryRepository))
			_, err := svc.Update(context.Background(), owner, issueID, UpdateIssueInput{Title: "New title", Description: "d", Location: "l"})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			issueRepo.AssertExpectations(t)
		})
	}
}

func TestIssueService_Delete(t *testing.T) {
	owner := auth.Identity{Email: "owner@example.com", Role: model.RoleCitizen}
	admin := auth.Identity{Email: "admin@example.com", Role: model.RoleAdmin}
	issueID := uuid.New()

	tests := []struct {
		name    string
		actor   auth.Identity
		status  model.IssueStatus
		wantErr error
	}{
		{"owner deletes pending issue", owner, model.StatusPending, nil},
		{"owner cannot delete resolved issue", owner, model.StatusResolved, errors.ErrForbidden},
		{"owner cannot delete closed issue", owner, model.StatusClosed, errors.ErrForbidden},
		{"admin deletes closed issue", admin, model.StatusClosed, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issueRepo := new(MockIssueRepository)
			issueRepo.On("FindByID", mock.Anything, issueID).Return(&model.Issue{
				ID:            issueID,
				ReporterEmail: owner.Email,
				Status:        tt.status,
			}, nil)
			if tt.wantErr == nil {
				issueRepo.On("Delete", mock.Anything, issueID).Return(nil)
			}

			svc := newTestIssueService(issueRepo, new(MockTimelineRepository), new(MockUserRepository), new(MockCategoryRepository))
			err := svc.Delete(context.Background(), tt.actor, issueID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			issueRepo.AssertExpectations(t)
		})
	}
}

func TestIssueService_Get(t *testing.T) {
	issueID := uuid.New()
	issueRepo := new(MockIssueRepository)
	timelineRepo := new(MockTimelineRepository)

	issueRepo.On("FindByID", mock.Anything, issueID).Return(&model.Issue{ID: issueID, Status: model.StatusPending}, nil)
	timelineRepo.On("ListByIssue", mock.Anything, issueID).Return([]model.TimelineEntry{
		{IssueID: issueID, Status: model.StatusPending, Message: "Issue reported"},
	}, nil)

	svc := newTestIssueService(issueRepo, timelineRepo, new(MockUserRepository), new(MockCategoryRepository))
	detail, err := svc.Get(context.Background(), issueID)
	assert.NoError(t, err)
	assert.Len(t, detail.Timelines, 1)
	assert.ElementsMatch(t, []model.IssueStatus{model.StatusInProgress, model.StatusRejected}, detail.NextStatuses)
}
