package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/common"
	"github.com/kassa-bot/kassa/internal/model"
	"github.com/kassa-bot/kassa/internal/service"
)

type transactionRequest struct {
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        model.Kind      `json:"kind"`
	Description string          `json:"description"`
}

func (r *transactionRequest) validate() error {
	if r.CategoryID <= 0 {
		return errors.New("category_id is required")
	}
	if !r.Kind.Valid() {
		return errors.New("kind must be income or expense")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	return nil
}

func (s *Server) handleListTransactions(c echo.Context) error {
	limit, offset := paginationParams(c)
	filter := service.TransactionFilter{Limit: limit, Offset: offset}

	if raw := c.QueryParam("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
		filter.StartDate = &from
	}
	if raw := c.QueryParam("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		// Inclusive end of day.
		to = to.Add(24*time.Hour - time.Second)
		filter.EndDate = &to
	}

	txns, err := s.store.GetTransactions(c.Request().Context(), currentUser(c).ID, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	return c.JSON(http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(c echo.Context) error {
	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	userID := currentUser(c).ID

	// The category must belong to the caller.
	if _, err := s.store.GetCategoryByID(ctx, userID, req.CategoryID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load category")
	}

	txn, err := s.store.CreateTransaction(ctx, &model.Transaction{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Description: req.Description,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create transaction")
	}
	return c.JSON(http.StatusCreated, txn)
}

func (s *Server) handleGetTransaction(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	txn, err := s.store.GetTransactionByID(c.Request().Context(), currentUser(c).ID, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load transaction")
	}
	return c.JSON(http.StatusOK, txn)
}

func (s *Server) handleUpdateTransaction(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	userID := currentUser(c).ID

	if _, err := s.store.GetCategoryByID(ctx, userID, req.CategoryID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load category")
	}

	err = s.store.UpdateTransaction(ctx, &model.Transaction{
		ID:          id,
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update transaction")
	}

	updated, err := s.store.GetTransactionByID(ctx, userID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load transaction")
	}
	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(c.Request().Context(), currentUser(c).ID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}
