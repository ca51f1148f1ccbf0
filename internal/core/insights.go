package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Stress thresholds, as a percentage of monthly income.
const (
	WarningStressPercent  = 30.0
	HighRiskStressPercent = 50.0

	earlyMonthLastDay = 5
	manyEMIsThreshold = 3
)

type (
	HealthStatus string
	InsightType  string

	// Stress relates the total EMI outflow to the monthly income.
	Stress struct {
		TotalEMI         float64
		MonthlyIncome    float64
		StressPercentage float64
		HealthStatus     HealthStatus
	}

	Insight struct {
		Type    InsightType
		Title   string
		Message string
	}

	// WeekBucket groups EMIs by the week of the month they fall due in.
	WeekBucket struct {
		Week  int
		Range string
		Total float64
		EMIs  []EMI
	}
)

const (
	Healthy  HealthStatus = "healthy"
	Warning  HealthStatus = "warning"
	HighRisk HealthStatus = "high-risk"

	InsightInfo    InsightType = "info"
	InsightWarning InsightType = "warning"
	InsightDanger  InsightType = "danger"
)

// CalculateStress computes the share of income consumed by EMIs. With no
// income the percentage is 0.
func CalculateStress(emis []EMI, monthlyIncome float64) Stress {
	total := TotalMonthly(emis)

	var pct float64
	if monthlyIncome > 0 {
		pct = total / monthlyIncome * 100
	}

	status := Healthy
	switch {
	case pct > HighRiskStressPercent:
		status = HighRisk
	case pct >= WarningStressPercent:
		status = Warning
	}

	return Stress{
		TotalEMI:         total,
		MonthlyIncome:    monthlyIncome,
		StressPercentage: pct,
		HealthStatus:     status,
	}
}

// GroupByWeek places every EMI in one of four buckets: days 1-7, 8-14,
// 15-21 and 22-31.
func GroupByWeek(emis []EMI) []WeekBucket {
	weeks := []WeekBucket{
		{Week: 1, Range: "1-7", EMIs: []EMI{}},
		{Week: 2, Range: "8-14", EMIs: []EMI{}},
		{Week: 3, Range: "15-21", EMIs: []EMI{}},
		{Week: 4, Range: "22-31", EMIs: []EMI{}},
	}

	for _, e := range emis {
		idx := 3
		switch {
		case e.DueDate <= 7:
			idx = 0
		case e.DueDate <= 14:
			idx = 1
		case e.DueDate <= 21:
			idx = 2
		}
		weeks[idx].EMIs = append(weeks[idx].EMIs, e)
		weeks[idx].Total += e.MonthlyAmount.InexactFloat64()
	}
	return weeks
}

// GenerateInsights derives the advisory messages shown for the current EMIs
// and income.
func GenerateInsights(emis []EMI, monthlyIncome float64) []Insight {
	insights := []Insight{}
	stress := CalculateStress(emis, monthlyIncome)

	switch {
	case stress.StressPercentage > HighRiskStressPercent:
		insights = append(insights, Insight{
			Type:    InsightDanger,
			Title:   "High Financial Stress Detected",
			Message: fmt.Sprintf("Your EMIs consume %.1f%% of your monthly income. Consider restructuring or consolidating your loans.", stress.StressPercentage),
		})
	case stress.StressPercentage >= WarningStressPercent:
		insights = append(insights, Insight{
			Type:    InsightWarning,
			Title:   "Moderate Financial Stress",
			Message: fmt.Sprintf("Your EMIs take up %.1f%% of your income. Keep an eye on your spending.", stress.StressPercentage),
		})
	case len(emis) > 0:
		insights = append(insights, Insight{
			Type:    InsightInfo,
			Title:   "Healthy Financial Status",
			Message: fmt.Sprintf("Great job! Your EMI burden is only %.1f%% of your income.", stress.StressPercentage),
		})
	}

	var congested []string
	for _, w := range GroupByWeek(emis) {
		if len(w.EMIs) > 1 {
			congested = append(congested, strconv.Itoa(w.Week))
		}
	}
	if len(congested) > 0 {
		insights = append(insights, Insight{
			Type:    InsightWarning,
			Title:   "Cashflow Congestion Risk",
			Message: fmt.Sprintf("Multiple EMIs are due in week(s) %s of the month. Plan your budget accordingly.", strings.Join(congested, ", ")),
		})
	}

	// Salary is assumed to land on the 1st.
	early := 0
	for _, e := range emis {
		if e.DueDate <= earlyMonthLastDay && e.DueDate != 1 {
			early++
		}
	}
	if early > 0 {
		insights = append(insights, Insight{
			Type:    InsightWarning,
			Title:   "Early-Month Payment Risk",
			Message: fmt.Sprintf("%d EMI(s) are due in the first week. Ensure you have sufficient balance from the previous month.", early),
		})
	}

	if len(emis) > manyEMIsThreshold {
		insights = append(insights, Insight{
			Type:    InsightInfo,
			Title:   "Multiple Active EMIs",
			Message: fmt.Sprintf("You have %d active EMIs. Consider loan consolidation to simplify management.", len(emis)),
		})
	}

	return insights
}
