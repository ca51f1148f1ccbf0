package http

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"emipilot/internal/core"
)

// Wire types use the camelCase field names clients expect, with the numeric
// id rendered as a string under "_id".

type emiResponse struct {
	ID            string      `json:"_id"`
	Name          string      `json:"name"`
	MonthlyAmount json.Number `json:"monthlyAmount"`
	DueDate       int         `json:"dueDate"`
	LoanType      *string     `json:"loanType"`
	Tenure        *int        `json:"tenure"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type incomeResponse struct {
	ID            string      `json:"_id"`
	MonthlyIncome json.Number `json:"monthlyIncome"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type deleteResponse struct {
	Message string      `json:"message"`
	EMI     emiResponse `json:"emi"`
}

type summaryResponse struct {
	TotalEMI float64       `json:"totalEMI"`
	Count    int           `json:"count"`
	EMIs     []emiResponse `json:"emis"`
}

type stressResponse struct {
	TotalEMI         float64 `json:"totalEMI"`
	MonthlyIncome    float64 `json:"monthlyIncome"`
	StressPercentage float64 `json:"stressPercentage"`
	HealthStatus     string  `json:"healthStatus"`
}

type insightResponse struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type weekResponse struct {
	Week  int           `json:"week"`
	Range string        `json:"range"`
	Total float64       `json:"total"`
	EMIs  []emiResponse `json:"emis"`
}

func toEMIResponse(e core.EMI) emiResponse {
	return emiResponse{
		ID:            strconv.FormatInt(e.ID, 10),
		Name:          e.Name,
		MonthlyAmount: number(e.MonthlyAmount),
		DueDate:       e.DueDate,
		LoanType:      e.LoanType,
		Tenure:        e.Tenure,
		CreatedAt:     e.CreatedAt,
	}
}

func toEMIResponses(emis []core.EMI) []emiResponse {
	out := make([]emiResponse, 0, len(emis))
	for _, e := range emis {
		out = append(out, toEMIResponse(e))
	}
	return out
}

// incomeID is the wire id of the income row; each instance holds exactly one.
const incomeID = "1"

func toIncomeResponse(inc core.Income) incomeResponse {
	return incomeResponse{
		ID:            incomeID,
		MonthlyIncome: number(inc.MonthlyIncome),
		UpdatedAt:     inc.UpdatedAt,
	}
}

func toSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		TotalEMI: s.TotalEMI,
		Count:    s.Count,
		EMIs:     toEMIResponses(s.EMIs),
	}
}

func toStressResponse(s core.Stress) stressResponse {
	return stressResponse{
		TotalEMI:         s.TotalEMI,
		MonthlyIncome:    s.MonthlyIncome,
		StressPercentage: s.StressPercentage,
		HealthStatus:     string(s.HealthStatus),
	}
}

func toInsightResponses(insights []core.Insight) []insightResponse {
	out := make([]insightResponse, 0, len(insights))
	for _, in := range insights {
		out = append(out, insightResponse{Type: string(in.Type), Title: in.Title, Message: in.Message})
	}
	return out
}

func toWeekResponses(buckets []core.WeekBucket) []weekResponse {
	out := make([]weekResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, weekResponse{Week: b.Week, Range: b.Range, Total: b.Total, EMIs: toEMIResponses(b.EMIs)})
	}
	return out
}

// number renders an amount as a bare JSON number without trailing zeros.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
