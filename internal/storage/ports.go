package storage

import (
	"context"
	"time"

	"emipilot/internal/core"
)

// EMIStore persists EMI records. Lookups of missing ids return an error
// wrapping core.ErrNotFound.
type EMIStore interface {
	// ListEMIs returns every EMI ordered by due date, then id.
	ListEMIs(ctx context.Context) ([]core.EMI, error)
	GetEMI(ctx context.Context, id int64) (core.EMI, error)
	// CreateEMI inserts e and returns it with the assigned id.
	CreateEMI(ctx context.Context, e core.EMI) (core.EMI, error)
	// UpdateEMI overwrites every mutable column of the row with e.ID.
	UpdateEMI(ctx context.Context, e core.EMI) (core.EMI, error)
	DeleteEMI(ctx context.Context, id int64) error
}

// IncomeStore persists the per-instance income row.
type IncomeStore interface {
	GetIncome(ctx context.Context, instance string) (core.Income, error)
	// GetOrCreateIncome returns the stored row, inserting a zero row dated
	// now when none exists.
	GetOrCreateIncome(ctx context.Context, instance string, now time.Time) (core.Income, error)
	// SaveIncome inserts or replaces the row for inc.Instance.
	SaveIncome(ctx context.Context, inc core.Income) (core.Income, error)
}

type Store interface {
	EMIStore
	IncomeStore
	Close() error
}
