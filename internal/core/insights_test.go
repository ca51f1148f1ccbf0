package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emi(name string, amount int64, due int) EMI {
	return EMI{Name: name, MonthlyAmount: decimal.NewFromInt(amount), DueDate: due}
}

func TestSummarize(t *testing.T) {
	emis := []EMI{
		emi("Car Loan", 5000, 5),
		{Name: "Phone", MonthlyAmount: decimal.RequireFromString("1299.50"), DueDate: 12},
	}

	s := Summarize(emis)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 6299.5, s.TotalEMI, 1e-9)
	assert.Len(t, s.EMIs, 2)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Count)
	assert.Zero(t, empty.TotalEMI)
}

func TestCalculateStress(t *testing.T) {
	tests := []struct {
		name   string
		emis   []EMI
		income float64
		pct    float64
		status HealthStatus
	}{
		{name: "no income", emis: []EMI{emi("a", 1000, 1)}, income: 0, pct: 0, status: Healthy},
		{name: "healthy", emis: []EMI{emi("a", 2000, 1)}, income: 10000, pct: 20, status: Healthy},
		{name: "warning at threshold", emis: []EMI{emi("a", 3000, 1)}, income: 10000, pct: 30, status: Warning},
		{name: "warning at fifty", emis: []EMI{emi("a", 5000, 1)}, income: 10000, pct: 50, status: Warning},
		{name: "high risk", emis: []EMI{emi("a", 6000, 1)}, income: 10000, pct: 60, status: HighRisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := CalculateStress(tt.emis, tt.income)
			assert.InDelta(t, tt.pct, s.StressPercentage, 1e-9)
			assert.Equal(t, tt.status, s.HealthStatus)
			assert.Equal(t, tt.income, s.MonthlyIncome)
		})
	}
}

func TestGroupByWeek(t *testing.T) {
	weeks := GroupByWeek([]EMI{
		emi("a", 100, 1),
		emi("b", 200, 7),
		emi("c", 300, 8),
		emi("d", 400, 21),
		emi("e", 500, 31),
	})

	require.Len(t, weeks, 4)
	assert.Equal(t, "1-7", weeks[0].Range)
	assert.Len(t, weeks[0].EMIs, 2)
	assert.InDelta(t, 300, weeks[0].Total, 1e-9)
	assert.Len(t, weeks[1].EMIs, 1)
	assert.Len(t, weeks[2].EMIs, 1)
	assert.Equal(t, "22-31", weeks[3].Range)
	assert.Len(t, weeks[3].EMIs, 1)

	for _, w := range GroupByWeek(nil) {
		assert.NotNil(t, w.EMIs)
		assert.Empty(t, w.EMIs)
	}
}

func TestGenerateInsights(t *testing.T) {
	t.Run("nothing stored", func(t *testing.T) {
		assert.Empty(t, GenerateInsights(nil, 0))
	})

	t.Run("healthy single emi on the first", func(t *testing.T) {
		insights := GenerateInsights([]EMI{emi("a", 1000, 1)}, 10000)
		require.Len(t, insights, 1)
		assert.Equal(t, InsightInfo, insights[0].Type)
		assert.Equal(t, "Great job! Your EMI burden is only 10.0% of your income.", insights[0].Message)
	})

	t.Run("high stress with congestion and early dues", func(t *testing.T) {
		emis := []EMI{
			emi("a", 3000, 2),
			emi("b", 3000, 3),
			emi("c", 500, 10),
			emi("d", 500, 25),
		}
		insights := GenerateInsights(emis, 10000)
		require.Len(t, insights, 4)

		assert.Equal(t, InsightDanger, insights[0].Type)
		assert.Equal(t, "High Financial Stress Detected", insights[0].Title)
		assert.Contains(t, insights[0].Message, "70.0%")

		assert.Equal(t, "Cashflow Congestion Risk", insights[1].Title)
		assert.Contains(t, insights[1].Message, "week(s) 1 of")

		assert.Equal(t, "Early-Month Payment Risk", insights[2].Title)
		assert.Contains(t, insights[2].Message, "2 EMI(s)")

		assert.Equal(t, "Multiple Active EMIs", insights[3].Title)
		assert.Contains(t, insights[3].Message, "4 active EMIs")
	})

	t.Run("moderate stress", func(t *testing.T) {
		insights := GenerateInsights([]EMI{emi("a", 3500, 15)}, 10000)
		require.Len(t, insights, 1)
		assert.Equal(t, InsightWarning, insights[0].Type)
		assert.Equal(t, "Moderate Financial Stress", insights[0].Title)
	})
}
