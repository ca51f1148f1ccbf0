package sheets

import (
	"strconv"
	"time"

	"emipilot/internal/core"
)

// Header is the first row written to the mirror sheet.
var Header = []interface{}{"ID", "Name", "Monthly Amount", "Due Date", "Next Due", "Loan Type", "Tenure", "Created At"}

// Rows renders s as sheet rows: the header, one row per EMI in the given
// order, a blank separator, then the totals block.
func Rows(s Snapshot) [][]interface{} {
	rows := make([][]interface{}, 0, len(s.EMIs)+6)
	rows = append(rows, Header)

	for _, e := range s.EMIs {
		loanType := ""
		if e.LoanType != nil {
			loanType = *e.LoanType
		}
		tenure := ""
		if e.Tenure != nil {
			tenure = strconv.Itoa(*e.Tenure)
		}
		rows = append(rows, []interface{}{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.MonthlyAmount.StringFixed(2),
			e.DueDate,
			core.NextDueDate(e.DueDate, s.TakenAt).Format("2006-01-02"),
			loanType,
			tenure,
			e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	stress := core.CalculateStress(s.EMIs, s.Income.MonthlyIncome.InexactFloat64())
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Total EMI", strconv.FormatFloat(stress.TotalEMI, 'f', 2, 64)},
		[]interface{}{"Monthly Income", s.Income.MonthlyIncome.StringFixed(2)},
		[]interface{}{"Stress %", strconv.FormatFloat(stress.StressPercentage, 'f', 1, 64)},
		[]interface{}{"Health", string(stress.HealthStatus)},
		[]interface{}{"Synced At", s.TakenAt.UTC().Format(time.RFC3339)},
	)
	return rows
}
