package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kassa-bot/kassa/internal/model"
	"github.com/kassa-bot/kassa/internal/service"
)

var periodFormats = map[service.PeriodGroup]string{
	service.GroupByDay:   "%Y-%m-%d",
	service.GroupByMonth: "%Y-%m",
	service.GroupByYear:  "%Y",
}

// GetPeriodStats aggregates income and expense totals per period bucket.
// Amounts are summed in Go to keep decimal precision; SQL only groups.
func (s *SQLiteStorage) GetPeriodStats(ctx context.Context, userID int64, from, to time.Time, group service.PeriodGroup) ([]service.PeriodStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(userID, "userID"); err != nil {
		return nil, err
	}

	format, ok := periodFormats[group]
	if !ok {
		return nil, fmt.Errorf("unknown period group %q", group)
	}

	query := `
		SELECT strftime(?, created_at) AS period, amount, kind
		FROM transactions
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY period`

	rows, err := s.db.QueryContext(ctx, query, format, userID,
		from.UTC().Format(time.DateTime), to.UTC().Format(time.DateTime))
	if err != nil {
		return nil, fmt.Errorf("failed to query period stats: %w", err)
	}
	defer rows.Close()

	var stats []service.PeriodStat
	index := map[string]int{}

	for rows.Next() {
		var period, amount, kind string
		if scanErr := rows.Scan(&period, &amount, &kind); scanErr != nil {
			return nil, fmt.Errorf("failed to scan period stat: %w", scanErr)
		}

		value, decErr := decimal.NewFromString(amount)
		if decErr != nil {
			return nil, fmt.Errorf("corrupt amount in period %s: %w", period, decErr)
		}

		i, seen := index[period]
		if !seen {
			i = len(stats)
			index[period] = i
			stats = append(stats, service.PeriodStat{Period: period})
		}

		if model.Kind(kind) == model.KindIncome {
			stats[i].Income = stats[i].Income.Add(value)
		} else {
			stats[i].Expense = stats[i].Expense.Add(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period stats: %w", err)
	}
	return stats, nil
}
