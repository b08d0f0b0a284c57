package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"civicfix/internal/config"
	"civicfix/internal/db"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

const seedPassword = "password123"

type seedUser struct {
	Email       string
	DisplayName string
	Role        model.Role
	IsPremium   bool
}

var seedUsers = []seedUser{
	{Email: "admin@civicfix.local", DisplayName: "Portal Admin", Role: model.RoleAdmin},
	{Email: "staff.rahim@civicfix.local", DisplayName: "Rahim Uddin", Role: model.RoleStaff},
	{Email: "staff.karima@civicfix.local", DisplayName: "Karima Begum", Role: model.RoleStaff},
	{Email: "citizen.hasan@example.com", DisplayName: "Hasan Mahmud", Role: model.RoleCitizen},
	{Email: "citizen.nusrat@example.com", DisplayName: "Nusrat Jahan", Role: model.RoleCitizen, IsPremium: true},
}

var seedCategories = []string{
	"Roads", "Streetlights", "Waste Management", "Water Supply", "Drainage",
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Issue{},
		&model.IssueUpvote{},
		&model.TimelineEntry{},
		&model.Payment{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	issueRepo := repository.NewIssueRepository(gormDB)
	timelineRepo := repository.NewTimelineRepository(gormDB)
	paymentRepo := repository.NewPaymentRepository(gormDB)

	users, err := seedAccounts(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedCategoryRows(ctx, categoryRepo); err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	if err := seedIssues(ctx, issueRepo, timelineRepo, userRepo, users); err != nil {
		log.Fatalf("Failed to seed issues: %v", err)
	}

	if err := seedPayments(ctx, paymentRepo, users); err != nil {
		log.Fatalf("Failed to seed payments: %v", err)
	}

	log.Println("Seed completed successfully!")
	log.Printf("  - All seeded accounts use password %q", seedPassword)
}

func seedAccounts(ctx context.Context, userRepo repository.UserRepository) (map[string]*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created := 0
	byEmail := make(map[string]*model.User, len(seedUsers))
	for _, su := range seedUsers {
		existing, err := userRepo.FindByEmail(ctx, su.Email)
		if err == nil {
			byEmail[su.Email] = existing
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}

		user := &model.User{
			Email:        su.Email,
			DisplayName:  su.DisplayName,
			PasswordHash: string(hash),
			Role:         su.Role,
			IsPremium:    su.IsPremium,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		byEmail[su.Email] = user
		created++
	}
	log.Printf("  - Users created: %d (existing: %d)", created, len(seedUsers)-created)
	return byEmail, nil
}

func seedCategoryRows(ctx context.Context, categoryRepo repository.CategoryRepository) error {
	created := 0
	for _, name := range seedCategories {
		if _, err := categoryRepo.FindByName(ctx, name); err == nil {
			continue
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := categoryRepo.Create(ctx, &model.Category{CategoryName: name}); err != nil {
			return err
		}
		created++
	}
	log.Printf("  - Categories created: %d", created)
	return nil
}

type seedIssue struct {
	Title         string
	Description   string
	Category      string
	Location      string
	ReporterEmail string
	StaffEmail    string
	Status        model.IssueStatus
	Boosted       bool
}

var seedIssueRows = []seedIssue{
	{
		Title:         "Pothole on Mirpur Road",
		Description:   "Large pothole near the bus stop, dangerous for rickshaws at night.",
		Category:      "Roads",
		Location:      "Mirpur, Dhaka",
		ReporterEmail: "citizen.hasan@example.com",
		StaffEmail:    "staff.rahim@civicfix.local",
		Status:        model.StatusWorking,
	},
	{
		Title:         "Streetlight out for two weeks",
		Description:   "The light at the corner of Road 11 has been dark since the storm.",
		Category:      "Streetlights",
		Location:      "Banani, Dhaka",
		ReporterEmail: "citizen.nusrat@example.com",
		StaffEmail:    "staff.karima@civicfix.local",
		Status:        model.StatusResolved,
		Boosted:       true,
	},
	{
		Title:         "Overflowing garbage bins",
		Description:   "Bins at the market entrance have not been emptied this week.",
		Category:      "Waste Management",
		Location:      "Dhanmondi, Dhaka",
		ReporterEmail: "citizen.hasan@example.com",
		Status:        model.StatusPending,
	},
	{
		Title:         "Blocked drain flooding the lane",
		Description:   "Rainwater stands for days because the drain is clogged.",
		Category:      "Drainage",
		Location:      "Old Town, Dhaka",
		ReporterEmail: "citizen.nusrat@example.com",
		Status:        model.StatusRejected,
	},
}

// statusPath lists the forward steps needed to reach a target status.
func statusPath(target model.IssueStatus) []model.IssueStatus {
	if target == model.StatusRejected {
		return []model.IssueStatus{model.StatusRejected}
	}
	var path []model.IssueStatus
	for s := model.StatusPending; s != target; {
		next, ok := s.Next()
		if !ok {
			break
		}
		path = append(path, next)
		s = next
	}
	return path
}

func seedIssues(
	ctx context.Context,
	issueRepo repository.IssueRepository,
	timelineRepo repository.TimelineRepository,
	userRepo repository.UserRepository,
	users map[string]*model.User,
) error {
	existing, _, err := issueRepo.List(ctx, repository.IssueFilter{Limit: 1})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Println("  - Issues already present, skipping")
		return nil
	}

	admin := users["admin@civicfix.local"]
	for _, si := range seedIssueRows {
		reporter := users[si.ReporterEmail]
		issue := &model.Issue{
			Title:         si.Title,
			Description:   si.Description,
			Category:      si.Category,
			Location:      si.Location,
			ReporterEmail: reporter.Email,
			ReporterName:  reporter.DisplayName,
			Status:        si.Status,
			Priority:      model.PriorityNormal,
		}
		if si.Boosted {
			issue.Priority = model.PriorityHigh
			issue.IsBoosted = true
		}
		if si.StaffEmail != "" {
			staff := users[si.StaffEmail]
			issue.AssignedStaffEmail = staff.Email
			issue.AssignedStaffName = staff.DisplayName
		}

		err := issueRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
			if err := issueRepo.CreateTx(ctx, tx, issue); err != nil {
				return err
			}
			entries := []*model.TimelineEntry{{
				IssueID:        issue.ID,
				Status:         model.StatusPending,
				Message:        "Issue reported",
				UpdatedByEmail: reporter.Email,
				UpdatedByName:  reporter.DisplayName,
				UpdatedByRole:  model.RoleCitizen,
			}}
			prev := model.StatusPending
			for _, step := range statusPath(si.Status) {
				actorEmail, actorName, actorRole := admin.Email, admin.DisplayName, model.RoleAdmin
				message := "Issue rejected by admin"
				if step != model.StatusRejected {
					actorEmail = issue.AssignedStaffEmail
					actorName = issue.AssignedStaffName
					actorRole = model.RoleStaff
					message = "Status changed from " + string(prev) + " to " + string(step)
				}
				entries = append(entries, &model.TimelineEntry{
					IssueID:        issue.ID,
					Status:         step,
					Message:        message,
					UpdatedByEmail: actorEmail,
					UpdatedByName:  actorName,
					UpdatedByRole:  actorRole,
				})
				prev = step
			}
			for _, entry := range entries {
				if err := timelineRepo.CreateTx(ctx, tx, entry); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		reporter.IssuesCreated++
		if err := userRepo.Update(ctx, reporter); err != nil {
			return err
		}
	}
	log.Printf("  - Issues created: %d", len(seedIssueRows))
	return nil
}

func seedPayments(ctx context.Context, paymentRepo repository.PaymentRepository, users map[string]*model.User) error {
	existing, err := paymentRepo.Latest(ctx, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Println("  - Payments already present, skipping")
		return nil
	}

	premium := users["citizen.nusrat@example.com"]
	now := time.Now()
	payment := &model.Payment{
		PaymentType:   model.PaymentTypeSubscription,
		SessionID:     "cs_" + uuid.NewString(),
		TransactionID: "txn_" + uuid.NewString(),
		Status:        model.PaymentStatusPaid,
		PaidAt:        &now,
		CustomerEmail: premium.Email,
		CustomerName:  premium.DisplayName,
		Amount:        decimal.NewFromInt(1000),
		Currency:      "BDT",
	}
	if err := paymentRepo.Create(ctx, payment); err != nil {
		return err
	}
	log.Println("  - Payments created: 1")
	return nil
}
