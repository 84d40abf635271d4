package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassa-bot/kassa/internal/model"
)

func TestMatchCategories(t *testing.T) {
	candidates := []model.Category{
		{ID: 1, Name: "Продукты", Kind: model.KindExpense},
		{ID: 2, Name: "Проезд", Kind: model.KindExpense},
		{ID: 3, Name: "Зарплата", Kind: model.KindIncome},
	}

	t.Run("prefix matches same kind in storage order", func(t *testing.T) {
		got := MatchCategories("про", candidates, model.KindExpense)
		require.Len(t, got, 2)
		assert.Equal(t, "Продукты", got[0].Name)
		assert.Equal(t, "Проезд", got[1].Name)
	})

	t.Run("match is case insensitive", func(t *testing.T) {
		got := MatchCategories("ПРОдукты", candidates, model.KindExpense)
		require.Len(t, got, 2)
	})

	t.Run("kind filters candidates", func(t *testing.T) {
		got := MatchCategories("зарплата", candidates, model.KindExpense)
		assert.Empty(t, got)

		got = MatchCategories("зарплата", candidates, model.KindIncome)
		require.Len(t, got, 1)
		assert.Equal(t, "Зарплата", got[0].Name)
	})

	t.Run("two character fragment uses two character prefix", func(t *testing.T) {
		got := MatchCategories("пр", candidates, model.KindExpense)
		require.Len(t, got, 2)
	})

	t.Run("single character fragment matches nothing", func(t *testing.T) {
		assert.Empty(t, MatchCategories("п", candidates, model.KindExpense))
	})

	t.Run("empty fragment matches nothing", func(t *testing.T) {
		assert.Empty(t, MatchCategories("", candidates, model.KindExpense))
	})

	t.Run("candidate shorter than prefix is skipped", func(t *testing.T) {
		short := []model.Category{{ID: 9, Name: "Ад", Kind: model.KindExpense}}
		assert.Empty(t, MatchCategories("адвокат", short, model.KindExpense))
	})

	t.Run("no matching prefix", func(t *testing.T) {
		assert.Empty(t, MatchCategories("жильё", candidates, model.KindExpense))
	})
}
