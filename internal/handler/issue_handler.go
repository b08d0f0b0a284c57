package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"civicfix/internal/model"
	"civicfix/internal/repository"
	"civicfix/internal/service"
)

// IssueHandler handles the public issue feed and the citizen issue surface.
type IssueHandler struct {
	issueService service.IssueService
}

// NewIssueHandler creates a new issue handler.
func NewIssueHandler(issueService service.IssueService) *IssueHandler {
	return &IssueHandler{issueService: issueService}
}

// CreateIssueRequest represents a citizen issue submission.
type CreateIssueRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Image       string `json:"image" validate:"omitempty,url"`
	Location    string `json:"location" validate:"required"`
}

// UpdateIssueRequest represents an owner edit of a pending issue.
type UpdateIssueRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"omitempty"`
	Image       string `json:"image" validate:"omitempty,url"`
	Location    string `json:"location" validate:"required"`
}

// IssueListResponse is a paginated issue page.
type IssueListResponse struct {
	Issues []interface{} `json:"issues"`
	Total  int64         `json:"total"`
	Page   int           `json:"page"`
	Limit  int           `json:"limit"`
}

func issueFilterFromQuery(c echo.Context) repository.IssueFilter {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return repository.IssueFilter{
		Status:        model.IssueStatus(c.QueryParam("status")),
		Priority:      model.IssuePriority(c.QueryParam("priority")),
		Category:      c.QueryParam("category"),
		Location:      c.QueryParam("location"),
		Search:        c.QueryParam("search"),
		Page:          page,
		Limit:         limit,
		SortByUpvotes: c.QueryParam("sort") == "upvotes",
	}
}

func issuePage(c echo.Context, issues interface{}, total int64, filter repository.IssueFilter) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"issues": issues,
		"total":  total,
		"page":   filter.Page,
		"limit":  filter.Limit,
	})
}

// List godoc
// @Summary List issues with filters and pagination
// @Tags issues
// @Produce json
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param category query string false "Filter by category"
// @Param location query string false "Filter by location"
// @Param search query string false "Search in title and description"
// @Param sort query string false "Set to upvotes to sort by votes"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} IssueListResponse
// @Router /issues [get]
func (h *IssueHandler) List(c echo.Context) error {
	filter := issueFilterFromQuery(c)
	issues, total, err := h.issueService.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(err)
	}
	return issuePage(c, issues, total, filter)
}

// Get godoc
// @Summary Get one issue with its timeline and legal next statuses
// @Tags issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} service.IssueDetail
// @Failure 404 {object} errors.ErrorResponse
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	detail, err := h.issueService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// LatestResolved godoc
// @Summary Latest resolved issues for the public landing page
// @Tags issues
// @Produce json
// @Param limit query int false "Number of issues (default 6)"
// @Success 200 {array} model.Issue
// @Router /issues/latest-resolved [get]
func (h *IssueHandler) LatestResolved(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 6
	}
	issues, err := h.issueService.LatestResolved(c.Request().Context(), limit)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, issues)
}

// Create godoc
// @Summary Report a new issue
// @Tags issues
// @Accept json
// @Produce json
// @Param request body CreateIssueRequest true "Issue data"
// @Success 201 {object} model.Issue
// @Failure 402 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /issues [post]
func (h *IssueHandler) Create(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req CreateIssueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	issue, err := h.issueService.Create(c.Request().Context(), actor, service.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
		Location:    req.Location,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, issue)
}

// Update godoc
// @Summary Edit an own pending issue
// @Tags issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param request body UpdateIssueRequest true "Updated issue data"
// @Success 200 {object} model.Issue
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /issues/{id} [put]
func (h *IssueHandler) Update(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	var req UpdateIssueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	issue, err := h.issueService.Update(c.Request().Context(), actor, id, service.UpdateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Image:       req.Image,
		Location:    req.Location,
	})
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, issue)
}

// Delete godoc
// @Summary Delete an issue
// @Tags issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /issues/{id} [delete]
func (h *IssueHandler) Delete(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	if err := h.issueService.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "issue deleted"})
}

// Upvote godoc
// @Summary Upvote an issue, idempotent per voter
// @Tags issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} model.Issue
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /issues/{id}/upvote [patch]
func (h *IssueHandler) Upvote(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid issue id", "INVALID_ID")
	}
	issue, err := h.issueService.Upvote(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, issue)
}

// MyIssues godoc
// @Summary List the caller's own issues
// @Tags issues
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search in title and description"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} IssueListResponse
// @Security BearerAuth
// @Router /my/issues [get]
func (h *IssueHandler) MyIssues(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	filter := issueFilterFromQuery(c)
	filter.ReporterEmail = actor.Email
	issues, total, err := h.issueService.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(err)
	}
	return issuePage(c, issues, total, filter)
}

// MyLocations godoc
// @Summary Distinct locations the caller has reported from
// @Tags issues
// @Produce json
// @Success 200 {array} string
// @Security BearerAuth
// @Router /my/issues/locations [get]
func (h *IssueHandler) MyLocations(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	locations, err := h.issueService.Locations(c.Request().Context(), actor.Email)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, locations)
}
