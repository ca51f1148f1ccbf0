package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"emipilot/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "emipilot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSQLiteRepository_EMILifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	created := time.Date(2025, 2, 3, 4, 5, 6, 789123456, time.UTC)

	car, err := repo.CreateEMI(ctx, core.EMI{
		Name:          "Car Loan",
		MonthlyAmount: decimal.RequireFromString("5000.50"),
		DueDate:       5,
		Tenure:        intPtr(36),
		CreatedAt:     created,
	})
	require.NoError(t, err)
	assert.NotZero(t, car.ID)

	home, err := repo.CreateEMI(ctx, core.EMI{
		Name:          "Home Loan",
		MonthlyAmount: decimal.NewFromInt(20000),
		DueDate:       1,
		LoanType:      strPtr("Mortgage"),
		CreatedAt:     created,
	})
	require.NoError(t, err)

	got, err := repo.GetEMI(ctx, car.ID)
	require.NoError(t, err)
	assert.Equal(t, "Car Loan", got.Name)
	assert.True(t, got.MonthlyAmount.Equal(decimal.RequireFromString("5000.5")))
	assert.Nil(t, got.LoanType)
	require.NotNil(t, got.Tenure)
	assert.Equal(t, 36, *got.Tenure)
	assert.True(t, got.CreatedAt.Equal(created.Truncate(time.Microsecond)))

	list, err := repo.ListEMIs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, home.ID, list[0].ID)
	assert.Equal(t, car.ID, list[1].ID)

	got.DueDate = 28
	got.Tenure = nil
	updated, err := repo.UpdateEMI(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, 28, updated.DueDate)
	assert.Nil(t, updated.Tenure)
	assert.True(t, updated.CreatedAt.Equal(got.CreatedAt))

	got.LoanType = strPtr("")
	_, err = repo.UpdateEMI(ctx, got)
	require.NoError(t, err)
	blank, err := repo.GetEMI(ctx, car.ID)
	require.NoError(t, err)
	require.NotNil(t, blank.LoanType)
	assert.Equal(t, "", *blank.LoanType)

	require.NoError(t, repo.DeleteEMI(ctx, car.ID))
	_, err = repo.GetEMI(ctx, car.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteEMI(ctx, car.ID), core.ErrNotFound)

	_, err = repo.UpdateEMI(ctx, core.EMI{ID: 999, Name: "x", MonthlyAmount: decimal.NewFromInt(1), DueDate: 1})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepository_ListEmpty(t *testing.T) {
	repo := newTestRepository(t)

	list, err := repo.ListEMIs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSQLiteRepository_Income(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := repo.GetIncome(ctx, core.DefaultInstance)
	assert.ErrorIs(t, err, core.ErrNotFound)

	inc, err := repo.GetOrCreateIncome(ctx, core.DefaultInstance, now)
	require.NoError(t, err)
	assert.True(t, inc.MonthlyIncome.IsZero())
	assert.True(t, inc.UpdatedAt.Equal(now))

	again, err := repo.GetOrCreateIncome(ctx, core.DefaultInstance, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(now))

	inc.MonthlyIncome = decimal.RequireFromString("85000.25")
	inc.UpdatedAt = now.Add(2 * time.Hour)
	saved, err := repo.SaveIncome(ctx, inc)
	require.NoError(t, err)
	assert.Equal(t, "85000.25", saved.MonthlyIncome.String())
	assert.True(t, saved.UpdatedAt.Equal(inc.UpdatedAt))

	other, err := repo.GetOrCreateIncome(ctx, "second", now)
	require.NoError(t, err)
	assert.True(t, other.MonthlyIncome.IsZero())
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "emipilot.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.CreateEMI(ctx, core.EMI{Name: "Phone", MonthlyAmount: decimal.NewFromInt(999), DueDate: 12, CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	list, err := repo.ListEMIs(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Phone", list[0].Name)
}

func TestDialectRebind(t *testing.T) {
	q := "UPDATE emis SET name = ?, due_date = ? WHERE id = ?"
	assert.Equal(t, q, DialectSQLite.rebind(q))
	assert.Equal(t, "UPDATE emis SET name = $1, due_date = $2 WHERE id = $3", DialectPostgres.rebind(q))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, v := range []interface{}{
		want,
		"2025-01-02T03:04:05Z",
		[]byte("2025-01-02 03:04:05"),
	} {
		got, err := parseTime(v)
		require.NoError(t, err)
		assert.True(t, got.Equal(want), "value %v", v)
	}

	_, err := parseTime(42)
	assert.Error(t, err)
}
