package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kassa-bot/kassa/internal/service"
)

// handleStats returns income/expense totals grouped by day, month or year.
func (s *Server) handleStats(c echo.Context) error {
	from, err := time.Parse("2006-01-02", c.QueryParam("date_from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date_from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", c.QueryParam("date_to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date_to must be YYYY-MM-DD")
	}
	to = to.Add(24*time.Hour - time.Second)

	group := service.PeriodGroup(c.QueryParam("group_by"))
	if group == "" {
		group = service.GroupByMonth
	}
	if !group.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "group_by must be day, month or year")
	}

	stats, err := s.store.GetPeriodStats(c.Request().Context(), currentUser(c).ID, from, to, group)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stats")
	}
	if stats == nil {
		stats = []service.PeriodStat{}
	}
	return c.JSON(http.StatusOK, stats)
}
