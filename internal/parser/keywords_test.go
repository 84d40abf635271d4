package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kassa-bot/kassa/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Kind
		ok   bool
	}{
		{
			name: "expense verb",
			text: "потратил 500 на еду",
			want: model.KindExpense,
			ok:   true,
		},
		{
			name: "income verb with salary",
			text: "получил зарплату 50000",
			want: model.KindIncome,
			ok:   true,
		},
		{
			name: "expense noun",
			text: "расход 100 на транспорт",
			want: model.KindExpense,
			ok:   true,
		},
		{
			name: "income noun",
			text: "доход 3000 за фриланс",
			want: model.KindIncome,
			ok:   true,
		},
		{
			name: "expense wins when both kinds present",
			text: "потратил доход 100 на еду",
			want: model.KindExpense,
			ok:   true,
		},
		{
			name: "no keyword at all",
			text: "купил книгу",
			ok:   false,
		},
		{
			name: "empty string",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.text)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
