package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinDueDate = 1
	MaxDueDate = 31

	// DefaultInstance keys the income row when no instance id is configured.
	DefaultInstance = "default"
)

type (
	// EMI is one recurring monthly installment.
	EMI struct {
		ID            int64           `json:"-"`
		Name          string          `json:"name" validate:"required,max=200"`
		MonthlyAmount decimal.Decimal `json:"monthlyAmount" validate:"gte=0.01"`
		DueDate       int             `json:"dueDate" validate:"min=1,max=31"`
		LoanType      *string         `json:"loanType" validate:"omitnil,max=100"`
		Tenure        *int            `json:"tenure" validate:"omitnil,min=1"`
		CreatedAt     time.Time       `json:"-"`
	}

	// Income is the monthly income of the single user, one row per
	// application instance.
	Income struct {
		Instance      string          `json:"-"`
		MonthlyIncome decimal.Decimal `json:"monthlyIncome" validate:"gte=0"`
		UpdatedAt     time.Time       `json:"-"`
	}

	// Summary aggregates every stored EMI.
	Summary struct {
		TotalEMI float64
		Count    int
		EMIs     []EMI
	}
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidBody = errors.New("invalid request body")
)

// NewIncome returns the zero income row created on first access.
func NewIncome(instance string, now time.Time) Income {
	return Income{
		Instance:      instance,
		MonthlyIncome: decimal.Zero,
		UpdatedAt:     now,
	}
}

// Validate checks the record constraints. Field errors are reported under
// their wire names.
func (e EMI) Validate() error {
	return validateStruct(e)
}

func (i Income) Validate() error {
	return validateStruct(i)
}

// Summarize computes the total monthly outflow and count over emis.
func Summarize(emis []EMI) Summary {
	return Summary{
		TotalEMI: TotalMonthly(emis),
		Count:    len(emis),
		EMIs:     emis,
	}
}

// TotalMonthly sums the monthly amounts as float64, in the order given.
func TotalMonthly(emis []EMI) float64 {
	var total float64
	for _, e := range emis {
		total += e.MonthlyAmount.InexactFloat64()
	}
	return total
}
