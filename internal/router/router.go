package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"civicfix/internal/auth"
	"civicfix/internal/config"
	"civicfix/internal/errors"
	"civicfix/internal/handler"
	"civicfix/internal/model"
	"civicfix/internal/repository"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	userRepo repository.UserRepository,
	tokenStore auth.TokenStoreInterface,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	issueHandler *handler.IssueHandler,
	categoryHandler *handler.CategoryHandler,
	paymentHandler *handler.PaymentHandler,
	staffHandler *handler.StaffHandler,
	adminHandler *handler.AdminHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/issues", issueHandler.List)
	api.GET("/issues/latest-resolved", issueHandler.LatestResolved)
	api.GET("/issues/:id", issueHandler.Get)
	api.GET("/categories", categoryHandler.List)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &auth.Claims{}
		},
	}), ResolveIdentity(userRepo, tokenStore))

	secured.GET("/me", profileHandler.Me)
	secured.PUT("/me", profileHandler.UpdateProfile)
	secured.GET("/me/stats", profileHandler.MyStats)

	secured.POST("/issues", issueHandler.Create)
	secured.PUT("/issues/:id", issueHandler.Update)
	secured.DELETE("/issues/:id", issueHandler.Delete)
	secured.PATCH("/issues/:id/upvote", issueHandler.Upvote)
	secured.GET("/my/issues", issueHandler.MyIssues)
	secured.GET("/my/issues/locations", issueHandler.MyLocations)

	secured.POST("/payments/checkout-session", paymentHandler.CreateCheckoutSession)
	secured.PATCH("/payments/confirm", paymentHandler.ConfirmPayment)
	secured.GET("/my/payments", paymentHandler.ListOwn)

	// Staff routes
	staff := secured.Group("/staff", RequireRole(model.RoleStaff))
	staff.GET("/issues", staffHandler.AssignedIssues)
	staff.PATCH("/issues/:id/status", staffHandler.AdvanceStatus)
	staff.GET("/overview", staffHandler.Overview)

	// Admin routes
	admin := secured.Group("/admin", RequireRole(model.RoleAdmin))
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id/role", adminHandler.ChangeRole)
	admin.PATCH("/users/:id/block", adminHandler.SetBlocked)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.PATCH("/issues/:id/assign", adminHandler.AssignStaff)
	admin.PATCH("/issues/:id/reject", adminHandler.RejectIssue)
	admin.POST("/categories", categoryHandler.Create)
	admin.PUT("/categories/:id", categoryHandler.Rename)
	admin.DELETE("/categories/:id", categoryHandler.Delete)
	admin.GET("/overview", adminHandler.Overview)
	admin.GET("/payments", adminHandler.ListPayments)
	admin.GET("/payments/:id", adminHandler.GetInvoice)
}

// ResolveIdentity turns verified JWT claims into a request-scoped Identity
// backed by the user store. Re-reading the user row means role changes and
// blocks take effect immediately instead of at token expiry.
func ResolveIdentity(userRepo repository.UserRepository, tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "missing or invalid token",
					Code:  "UNAUTHORIZED",
				})
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "missing or invalid token",
					Code:  "UNAUTHORIZED",
				})
			}

			if blacklisted, _ := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID); blacklisted {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "token revoked",
					Code:  "UNAUTHORIZED",
				})
			}

			user, err := userRepo.FindByEmail(c.Request().Context(), claims.Email)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "account no longer exists",
					Code:  "UNAUTHORIZED",
				})
			}

			auth.SetIdentity(c, auth.IdentityFromUser(user))
			return next(c)
		}
	}
}

// RequireRole gates a route group to one role.
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := auth.GetIdentity(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
					Error: "missing or invalid credentials",
					Code:  "UNAUTHORIZED",
				})
			}
			if id.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, errors.ErrorResponse{
					Error: "insufficient role",
					Code:  "FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
