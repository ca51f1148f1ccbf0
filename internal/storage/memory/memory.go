// Package memory provides an in-process Store used by tests and the
// memory data backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"emipilot/internal/core"
	"emipilot/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	nextID  int64
	emis    map[int64]core.EMI
	incomes map[string]core.Income
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		nextID:  1,
		emis:    make(map[int64]core.EMI),
		incomes: make(map[string]core.Income),
	}
}

func (s *Store) ListEMIs(ctx context.Context) ([]core.EMI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.EMI, 0, len(s.emis))
	for _, e := range s.emis {
		out = append(out, cloneEMI(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetEMI(ctx context.Context, id int64) (core.EMI, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.emis[id]
	if !ok {
		return core.EMI{}, fmt.Errorf("get emi %d: %w", id, core.ErrNotFound)
	}
	return cloneEMI(e), nil
}

func (s *Store) CreateEMI(ctx context.Context, e core.EMI) (core.EMI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextID
	s.nextID++
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Microsecond)
	s.emis[e.ID] = cloneEMI(e)
	return cloneEMI(e), nil
}

func (s *Store) UpdateEMI(ctx context.Context, e core.EMI) (core.EMI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.emis[e.ID]
	if !ok {
		return core.EMI{}, fmt.Errorf("update emi %d: %w", e.ID, core.ErrNotFound)
	}
	e.CreatedAt = stored.CreatedAt
	s.emis[e.ID] = cloneEMI(e)
	return cloneEMI(e), nil
}

func (s *Store) DeleteEMI(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.emis[id]; !ok {
		return fmt.Errorf("delete emi %d: %w", id, core.ErrNotFound)
	}
	delete(s.emis, id)
	return nil
}

func (s *Store) GetIncome(ctx context.Context, instance string) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inc, ok := s.incomes[instance]
	if !ok {
		return core.Income{}, fmt.Errorf("get income %q: %w", instance, core.ErrNotFound)
	}
	return inc, nil
}

func (s *Store) GetOrCreateIncome(ctx context.Context, instance string, now time.Time) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inc, ok := s.incomes[instance]; ok {
		return inc, nil
	}
	inc := core.NewIncome(instance, now.UTC().Truncate(time.Microsecond))
	s.incomes[instance] = inc
	return inc, nil
}

func (s *Store) SaveIncome(ctx context.Context, inc core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc.UpdatedAt = inc.UpdatedAt.UTC().Truncate(time.Microsecond)
	s.incomes[inc.Instance] = inc
	return inc, nil
}

func (s *Store) Close() error {
	return nil
}

// cloneEMI copies the optional pointers so callers cannot mutate stored rows.
func cloneEMI(e core.EMI) core.EMI {
	if e.LoanType != nil {
		v := *e.LoanType
		e.LoanType = &v
	}
	if e.Tenure != nil {
		v := *e.Tenure
		e.Tenure = &v
	}
	return e
}
