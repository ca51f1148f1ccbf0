package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emipilot/internal/core"
)

func TestRows(t *testing.T) {
	loanType := "Auto"
	tenure := 36
	takenAt := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)

	rows := Rows(Snapshot{
		EMIs: []core.EMI{
			{ID: 2, Name: "Home", MonthlyAmount: decimal.NewFromInt(20000), DueDate: 1, CreatedAt: takenAt},
			{ID: 1, Name: "Car Loan", MonthlyAmount: decimal.RequireFromString("5000.5"), DueDate: 31, LoanType: &loanType, Tenure: &tenure, CreatedAt: takenAt},
		},
		Income:  core.Income{Instance: "default", MonthlyIncome: decimal.NewFromInt(50000)},
		TakenAt: takenAt,
	})

	require.Len(t, rows, 1+2+6)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []interface{}{"2", "Home", "20000.00", 1, "2025-03-01", "", "", "2025-02-10T08:00:00Z"}, rows[1])
	assert.Equal(t, []interface{}{"1", "Car Loan", "5000.50", 31, "2025-02-28", "Auto", "36", "2025-02-10T08:00:00Z"}, rows[2])
	assert.Empty(t, rows[3])
	assert.Equal(t, []interface{}{"Total EMI", "25000.50"}, rows[4])
	assert.Equal(t, []interface{}{"Monthly Income", "50000.00"}, rows[5])
	assert.Equal(t, []interface{}{"Stress %", "50.0"}, rows[6])
	assert.Equal(t, []interface{}{"Health", "high-risk"}, rows[7])
}

func TestRows_Empty(t *testing.T) {
	rows := Rows(Snapshot{TakenAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})

	require.Len(t, rows, 7)
	assert.Equal(t, []interface{}{"Stress %", "0.0"}, rows[4])
	assert.Equal(t, []interface{}{"Health", "healthy"}, rows[5])
}
