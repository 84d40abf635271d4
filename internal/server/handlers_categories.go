package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

type categoryRequest struct {
	Name  string     `json:"name"`
	Kind  model.Kind `json:"kind"`
	Color string     `json:"color"`
	Icon  string     `json:"icon"`
}

func (s *Server) handleListCategories(c echo.Context) error {
	categories, err := s.store.GetCategories(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list categories")
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return c.JSON(http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if !req.Kind.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be income or expense")
	}

	category, err := s.store.CreateCategory(c.Request().Context(), &model.Category{
		UserID: currentUser(c).ID,
		Name:   req.Name,
		Kind:   req.Kind,
		Color:  req.Color,
		Icon:   req.Icon,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			return echo.NewHTTPError(http.StatusConflict, "category already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create category")
	}
	return c.JSON(http.StatusCreated, category)
}

func (s *Server) handleGetCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	category, err := s.store.GetCategoryByID(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load category")
	}
	return c.JSON(http.StatusOK, category)
}

func (s *Server) handleUpdateCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if !req.Kind.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be income or expense")
	}

	ctx := c.Request().Context()
	userID := currentUser(c).ID

	category := &model.Category{
		ID:     id,
		UserID: userID,
		Name:   req.Name,
		Kind:   req.Kind,
		Color:  req.Color,
		Icon:   req.Icon,
	}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		case errors.Is(err, common.ErrDuplicateEntry):
			return echo.NewHTTPError(http.StatusConflict, "category already exists")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update category")
		}
	}

	updated, err := s.store.GetCategoryByID(ctx, userID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load category")
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := s.store.DeleteCategory(c.Request().Context(), currentUser(c).ID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}
