package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"civicfix/internal/service"
)

// ProfileHandler handles the caller's own profile and dashboard.
type ProfileHandler struct {
	userService  service.UserService
	statsService service.StatsService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(userService service.UserService, statsService service.StatsService) *ProfileHandler {
	return &ProfileHandler{userService: userService, statsService: statsService}
}

// UpdateProfileRequest carries the editable profile fields.
type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=100"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// Me godoc
// @Summary Get the caller's profile
// @Tags profile
// @Produce json
// @Success 200 {object} model.User
// @Security BearerAuth
// @Router /me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetProfile(c.Request().Context(), actor.Email)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile godoc
// @Summary Update the caller's display name or photo
// @Tags profile
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} model.User
// @Security BearerAuth
// @Router /me [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), actor, req.DisplayName, req.PhotoURL)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// MyStats godoc
// @Summary Citizen dashboard summary: own issues and spend
// @Tags profile
// @Produce json
// @Success 200 {object} service.CitizenStats
// @Security BearerAuth
// @Router /me/stats [get]
func (h *ProfileHandler) MyStats(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	stats, err := h.statsService.CitizenStats(c.Request().Context(), actor)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
