package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qolda/qolda-backend/internal/service"
	"github.com/qolda/qolda-backend/internal/store"
)

type CategoryHandler struct {
	categories store.CategoryRepository
}

func NewCategoryHandler(categories store.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categories.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch categories"))
	}
	return c.JSON(http.StatusOK, categories)
}

type StatsHandler struct {
	svc service.StatsService
}

func NewStatsHandler(svc service.StatsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

func (h *StatsHandler) Community(c echo.Context) error {
	stats, err := h.svc.Community(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch stats"))
	}
	return c.JSON(http.StatusOK, stats)
}
