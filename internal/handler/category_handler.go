package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"civicfix/internal/service"
)

// CategoryHandler handles the category registry.
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest carries a category name.
type CategoryRequest struct {
	CategoryName string `json:"categoryName" validate:"required,max=100"`
}

// List godoc
// @Summary List categories with issue counts
// @Tags categories
// @Produce json
// @Success 200 {array} model.Category
// @Router /categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categoryService.List(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// Create godoc
// @Summary Create a category
// @Tags categories
// @Accept json
// @Produce json
// @Param request body CategoryRequest true "Category name"
// @Success 201 {object} model.Category
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/categories [post]
func (h *CategoryHandler) Create(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	category, err := h.categoryService.Create(c.Request().Context(), actor, req.CategoryName)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, category)
}

// Rename godoc
// @Summary Rename a category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param request body CategoryRequest true "New name"
// @Success 200 {object} model.Category
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/categories/{id} [put]
func (h *CategoryHandler) Rename(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid category id", "INVALID_ID")
	}
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body", "INVALID_REQUEST")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error(), "VALIDATION_ERROR")
	}

	category, err := h.categoryService.Rename(c.Request().Context(), actor, id, req.CategoryName)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, category)
}

// Delete godoc
// @Summary Delete a category
// @Tags categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /admin/categories/{id} [delete]
func (h *CategoryHandler) Delete(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest("invalid category id", "INVALID_ID")
	}
	if err := h.categoryService.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "category deleted"})
}
