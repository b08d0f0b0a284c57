package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"civicfix/internal/auth"
	"civicfix/internal/cache"
	"civicfix/internal/errors"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

// AdminOverviewCacheKey is the redis key for the cached admin dashboard.
// Mutating services delete it best-effort; the cron refresher re-warms it.
const AdminOverviewCacheKey = "stats:admin_overview"

const adminOverviewCacheTTL = 5 * time.Minute

// CitizenStats is the citizen dashboard summary.
type CitizenStats struct {
	StatusCounts map[model.IssueStatus]int64           `json:"statusCounts"`
	TotalIssues  int64                                 `json:"totalIssues"`
	PaymentTotal decimal.Decimal                       `json:"paymentTotal"`
	PaymentsBy   map[model.PaymentType]decimal.Decimal `json:"paymentsByType"`
}

// StaffOverview is the staff dashboard summary, scoped to assigned issues.
type StaffOverview struct {
	StatusCounts map[model.IssueStatus]int64 `json:"statusCounts"`
	TotalIssues  int64                       `json:"totalIssues"`
}

// AdminOverview is the global admin dashboard summary.
type AdminOverview struct {
	IssueStatusCounts map[model.IssueStatus]int64           `json:"issueStatusCounts"`
	PriorityCounts    map[model.IssuePriority]int64         `json:"priorityCounts"`
	UserCounts        map[model.Role]int64                  `json:"userCounts"`
	PaymentTotals     map[model.PaymentType]decimal.Decimal `json:"paymentTotals"`
	LatestIssues      []model.Issue                         `json:"latestIssues"`
	LatestUsers       []model.User                          `json:"latestUsers"`
	LatestPayments    []model.Payment                       `json:"latestPayments"`
}

// StatsService computes the role-scoped aggregates.
type StatsService interface {
	CitizenStats(ctx context.Context, actor auth.Identity) (*CitizenStats, error)
	StaffOverview(ctx context.Context, actor auth.Identity) (*StaffOverview, error)
	AdminOverview(ctx context.Context, actor auth.Identity) (*AdminOverview, error)
	// RefreshAdminOverview recomputes and re-caches the admin dashboard.
	// Called by the cron scheduler.
	RefreshAdminOverview(ctx context.Context) error
}

type statsService struct {
	issueRepo   repository.IssueRepository
	userRepo    repository.UserRepository
	paymentRepo repository.PaymentRepository
	access      *AccessMatrix
	cache       *cache.Client
}

// NewStatsService creates a new stats service.
func NewStatsService(
	issueRepo repository.IssueRepository,
	userRepo repository.UserRepository,
	paymentRepo repository.PaymentRepository,
	access *AccessMatrix,
	cache *cache.Client,
) StatsService {
	return &statsService{
		issueRepo:   issueRepo,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		access:      access,
		cache:       cache,
	}
}

// CitizenStats summarizes the caller's own issues and spend.
func (s *statsService) CitizenStats(ctx context.Context, actor auth.Identity) (*CitizenStats, error) {
	counts, err := s.issueRepo.CountByStatus(ctx, repository.IssueFilter{ReporterEmail: actor.Email})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	totals, err := s.paymentRepo.TotalsByType(ctx, actor.Email)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	stats := &CitizenStats{
		StatusCounts: counts,
		PaymentsBy:   totals,
		PaymentTotal: decimal.Zero,
	}
	for _, n := range counts {
		stats.TotalIssues += n
	}
	for _, amount := range totals {
		stats.PaymentTotal = stats.PaymentTotal.Add(amount)
	}
	return stats, nil
}

// StaffOverview summarizes the issues assigned to the caller.
func (s *statsService) StaffOverview(ctx context.Context, actor auth.Identity) (*StaffOverview, error) {
	if actor.Role != model.RoleStaff {
		return nil, errors.ErrForbidden
	}
	counts, err := s.issueRepo.CountByStatus(ctx, repository.IssueFilter{AssignedStaffEmail: actor.Email})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	overview := &StaffOverview{StatusCounts: counts}
	for _, n := range counts {
		overview.TotalIssues += n
	}
	return overview, nil
}

// AdminOverview returns the global dashboard, cache-aside.
func (s *statsService) AdminOverview(ctx context.Context, actor auth.Identity) (*AdminOverview, error) {
	if err := s.access.Authorize(actor, OpManageUsers, nil); err != nil {
		return nil, err
	}

	var cached AdminOverview
	if s.cache.GetJSON(ctx, AdminOverviewCacheKey, &cached) {
		return &cached, nil
	}

	overview, err := s.computeAdminOverview(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, AdminOverviewCacheKey, overview, adminOverviewCacheTTL)
	return overview, nil
}

// RefreshAdminOverview recomputes and re-caches the admin dashboard.
func (s *statsService) RefreshAdminOverview(ctx context.Context) error {
	overview, err := s.computeAdminOverview(ctx)
	if err != nil {
		return err
	}
	return s.cache.SetJSON(ctx, AdminOverviewCacheKey, overview, adminOverviewCacheTTL)
}

func (s *statsService) computeAdminOverview(ctx context.Context) (*AdminOverview, error) {
	statusCounts, err := s.issueRepo.CountByStatus(ctx, repository.IssueFilter{})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	priorityCounts, err := s.issueRepo.CountByPriority(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	userCounts, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	paymentTotals, err := s.paymentRepo.TotalsByType(ctx, "")
	if err != nil {
		return nil, mapStoreErr(err)
	}
	latestIssues, err := s.issueRepo.Latest(ctx, 5)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	latestUsers, err := s.userRepo.Latest(ctx, 5)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	latestPayments, err := s.paymentRepo.Latest(ctx, 5)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return &AdminOverview{
		IssueStatusCounts: statusCounts,
		PriorityCounts:    priorityCounts,
		UserCounts:        userCounts,
		PaymentTotals:     paymentTotals,
		LatestIssues:      latestIssues,
		LatestUsers:       latestUsers,
		LatestPayments:    latestPayments,
	}, nil
}
