package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
)

type meResponse struct {
	*model.User
	TelegramLinked bool `json:"telegram_linked"`
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(c echo.Context) error {
	user := currentUser(c)
	return c.JSON(http.StatusOK, meResponse{User: user, TelegramLinked: user.Linked()})
}

// handleCreateLinkCode issues a one-time Telegram link code.
func (s *Server) handleCreateLinkCode(c echo.Context) error {
	code, err := s.store.CreateLinkCode(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create link code")
	}
	return c.JSON(http.StatusCreated, map[string]string{"code": code})
}

func (s *Server) handleListUsers(c echo.Context) error {
	limit, offset := paginationParams(c)
	users, err := s.store.GetUsers(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleGetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := s.store.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}
	return c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := s.store.DeleteUser(c.Request().Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// paginationParams reads skip/limit query parameters with sane defaults.
func paginationParams(c echo.Context) (limit, offset int) {
	limit = 100
	if raw := c.QueryParam("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if raw := c.QueryParam("skip"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
