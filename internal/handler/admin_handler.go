package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"civicfix/internal/model"
	"civicfix/internal/repository"
	"civicfix/internal/service"
)

// AdminHandler handles the admin surface: user management, issue
// moderation, payment records and the global dashboard.
type AdminHandler struct {
	userService    service.UserService
	issueService   service.IssueService
	paymentService service.PaymentService
	statsService   service.StatsService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	userService service.UserService,
	issueService service.IssueService,
	paymentService service.PaymentService,
	statsService service.StatsService,
) *AdminHandler {
	return &AdminHandler{
		userService:    userService,
		issueService:   issueService,
		paymentService: paymentService,
		statsService:   statsService,
	}
}

// ChangeRoleRequest names the new role for a user.
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=citizen staff admin"`
}

// SetBlockedRequest toggles a citizen's blocked flag.
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

// AssignStaffRequest names the staff member to put on an issue.
type AssignStaffRequest struct {
	StaffEmail string `json:"staffEmail" validate:"required,email"`
}

// ListUsers godoc
// @Summary List users of one role
// @Tags admin
// @Produce json
// @Param role query string true "Role: citizen, staff or admin"
// @Param search query string false "Search by name or email"
// @Success 200 {array} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	role := model.Role(c.QueryParam("role"))
	if !role.Valid() {
		return badRequest("unknown role", "INVALID_ROLE")
	}
	users, err := h.userService.ListByRole(c.Request().Context(), actor, role, c.QueryParam("search"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// ChangeRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body ChangeRoleRequest true "New role"
// @Success 200 {object} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/role [patch]
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid user id", "INVALID_ID")
	}
	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	user, err := h.userService.ChangeRole(c.Request().Context(), actor, id, model.Role(req.Role))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// SetBlocked godoc
// @Summary Block or unblock a citizen
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetBlockedRequest true "Blocked flag"
// @Success 200 {object} model.User
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/block [patch]
func (h *AdminHandler) SetBlocked(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid user id", "INVALID_ID")
	}
	var req SetBlockedRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	user, err := h.userService.SetBlocked(c.Request().Context(), actor, id, *req.Blocked)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user account
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid user id", "INVALID_ID")
	}
	if err := h.userService.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "user deleted"})
}

// AssignStaff godoc
// @Summary Assign a staff member to a pending issue
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param request body AssignStaffRequest true "Staff email"
// @Success 200 {object} model.Issue
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/issues/{id}/assign [patch]
func (h *AdminHandler) AssignStaff(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	var req AssignStaffRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	issue, err := h.issueService.AssignStaff(c.Request().Context(), actor, id, req.StaffEmail)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, issue)
}

// RejectIssue godoc
// @Summary Reject a pending issue
// @Tags admin
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} model.Issue
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/issues/{id}/reject [patch]
func (h *AdminHandler) RejectIssue(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	issue, err := h.issueService.Reject(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, issue)
}

// Overview godoc
// @Summary Global admin dashboard summary
// @Tags admin
// @Produce json
// @Success 200 {object} service.AdminOverview
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/overview [get]
func (h *AdminHandler) Overview(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	overview, err := h.statsService.AdminOverview(c.Request().Context(), actor)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, overview)
}

// ListPayments godoc
// @Summary List all finalized payments
// @Tags admin
// @Produce json
// @Param type query string false "Filter by payment type"
// @Param search query string false "Search by customer or issue title"
// @Success 200 {array} model.Payment
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/payments [get]
func (h *AdminHandler) ListPayments(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter := repository.PaymentFilter{
		PaymentType: model.PaymentType(c.QueryParam("type")),
		Search:      c.QueryParam("search"),
	}
	payments, err := h.paymentService.ListAll(c.Request().Context(), actor, filter)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, payments)
}

// GetInvoice godoc
// @Summary Get one finalized payment for the invoice view
// @Tags admin
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} model.Payment
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/payments/{id} [get]
func (h *AdminHandler) GetInvoice(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid payment id", "INVALID_ID")
	}
	payment, err := h.paymentService.GetInvoice(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, payment)
}
