package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"civicfix/internal/model"
	"civicfix/internal/service"
)

// StaffHandler handles the staff workspace: assigned issues and status
// advancement.
type StaffHandler struct {
	issueService service.IssueService
	statsService service.StatsService
}

// NewStaffHandler creates a new staff handler.
func NewStaffHandler(issueService service.IssueService, statsService service.StatsService) *StaffHandler {
	return &StaffHandler{issueService: issueService, statsService: statsService}
}

// AdvanceStatusRequest names the target status for a one-step advance.
type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AssignedIssues godoc
// @Summary List issues assigned to the caller
// @Tags staff
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search in title and description"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} IssueListResponse
// @Security BearerAuth
// @Router /staff/issues [get]
func (h *StaffHandler) AssignedIssues(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter := issueFilterFromQuery(c)
	filter.AssignedStaffEmail = actor.Email
	issues, total, err := h.issueService.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(err)
	}
	return issuePage(c, issues, total, filter)
}

// AdvanceStatus godoc
// @Summary Advance an assigned issue one step along the forward path
// @Tags staff
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param request body AdvanceStatusRequest true "Target status"
// @Success 200 {object} model.Issue
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /staff/issues/{id}/status [patch]
func (h *StaffHandler) AdvanceStatus(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	var req AdvanceStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	issue, err := h.issueService.AdvanceStatus(c.Request().Context(), actor, id, model.IssueStatus(req.Status))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, issue)
}

// Overview godoc
// @Summary Staff dashboard summary scoped to assigned issues
// @Tags staff
// @Produce json
// @Success 200 {object} service.StaffOverview
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /staff/overview [get]
func (h *StaffHandler) Overview(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	overview, err := h.statsService.StaffOverview(c.Request().Context(), actor)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, overview)
}
