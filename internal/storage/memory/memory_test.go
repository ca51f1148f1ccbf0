package memory

import (
	"context"
	"testing"
	"time"

	"emipilot/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ListOrdersByDueDateThenID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, due := range []int{15, 3, 15, 1} {
		_, err := s.CreateEMI(ctx, core.EMI{Name: "x", MonthlyAmount: decimal.NewFromInt(1), DueDate: due})
		require.NoError(t, err)
	}

	list, err := s.ListEMIs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	var got [][2]int64
	for _, e := range list {
		got = append(got, [2]int64{int64(e.DueDate), e.ID})
	}
	assert.Equal(t, [][2]int64{{1, 4}, {3, 2}, {15, 1}, {15, 3}}, got)
}

func TestStore_ReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	tenure := 12

	e, err := s.CreateEMI(ctx, core.EMI{Name: "x", MonthlyAmount: decimal.NewFromInt(1), DueDate: 1, Tenure: &tenure})
	require.NoError(t, err)

	*e.Tenure = 99
	tenure = 50

	stored, err := s.GetEMI(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, *stored.Tenure)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetEMI(ctx, 1)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.UpdateEMI(ctx, core.EMI{ID: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEMI(ctx, 1), core.ErrNotFound)
	_, err = s.GetIncome(ctx, core.DefaultInstance)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_UpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	e, err := s.CreateEMI(ctx, core.EMI{Name: "x", MonthlyAmount: decimal.NewFromInt(1), DueDate: 1, CreatedAt: created})
	require.NoError(t, err)

	e.CreatedAt = time.Time{}
	e.Name = "y"
	updated, err := s.UpdateEMI(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, "y", updated.Name)
	assert.True(t, updated.CreatedAt.Equal(created))
}

func TestStore_Income(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	inc, err := s.GetOrCreateIncome(ctx, "a", now)
	require.NoError(t, err)
	assert.True(t, inc.MonthlyIncome.IsZero())

	inc.MonthlyIncome = decimal.NewFromInt(500)
	_, err = s.SaveIncome(ctx, inc)
	require.NoError(t, err)

	again, err := s.GetOrCreateIncome(ctx, "a", now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, again.MonthlyIncome.Equal(decimal.NewFromInt(500)))
	assert.True(t, again.UpdatedAt.Equal(now))
}
