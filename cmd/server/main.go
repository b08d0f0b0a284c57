package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"

	"civicfix/internal/auth"
	"civicfix/internal/cache"
	"civicfix/internal/config"
	"civicfix/internal/db"
	"civicfix/internal/handler"
	"civicfix/internal/model"
	"civicfix/internal/repository"
	"civicfix/internal/router"
	"civicfix/internal/service"
)

// @title CivicFix API
// @version 1.0
// @description Municipal issue reporting portal: issue lifecycle, role-based access, premium subscriptions and issue boosting.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Issue{},
		&model.IssueUpvote{},
		&model.TimelineEntry{},
		&model.Payment{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	issueRepo := repository.NewIssueRepository(gormDB)
	timelineRepo := repository.NewTimelineRepository(gormDB)
	paymentRepo := repository.NewPaymentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	access := service.NewAccessMatrix(cfg.AllowBlockedUpvote)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, access)
	categoryService := service.NewCategoryService(categoryRepo, issueRepo, access)
	issueService := service.NewIssueService(issueRepo, timelineRepo, userRepo, categoryRepo, access, cacheClient, cfg.FreeIssueQuota)
	paymentService, err := service.NewPaymentService(
		paymentRepo, issueRepo, userRepo, access, cacheClient,
		cfg.GatewayBaseURL, cfg.SubscriptionAmount, cfg.BoostAmount,
	)
	if err != nil {
		log.Fatalf("payment service init: %v", err)
	}
	statsService := service.NewStatsService(issueRepo, userRepo, paymentRepo, access, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(userService, statsService)
	issueHandler := handler.NewIssueHandler(issueService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	staffHandler := handler.NewStaffHandler(issueService, statsService)
	adminHandler := handler.NewAdminHandler(userService, issueService, paymentService, statsService)

	// Register routes
	router.Register(
		e,
		cfg,
		userRepo,
		tokenStore,
		authHandler,
		profileHandler,
		issueHandler,
		categoryHandler,
		paymentHandler,
		staffHandler,
		adminHandler,
	)

	// Keep the admin overview warm in the background.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.StatsRefreshSpec, func() {
		if err := statsService.RefreshAdminOverview(context.Background()); err != nil {
			log.Printf("stats refresh: %v", err)
		}
	}); err != nil {
		log.Fatalf("scheduler init: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
