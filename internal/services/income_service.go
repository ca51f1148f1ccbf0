package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"emipilot/internal/amqp"
	"emipilot/internal/core"
	emilog "emipilot/internal/log"
	"emipilot/internal/storage"
)

// IncomeService manages the income row of one instance.
type IncomeService struct {
	store    storage.IncomeStore
	instance string
	events   EventPublisher
	logger   *emilog.StructuredLogger
	now      func() time.Time
}

func NewIncomeService(store storage.IncomeStore, instance string, events EventPublisher, logger *emilog.Logger) *IncomeService {
	if events == nil {
		events = NoopPublisher{}
	}
	if instance == "" {
		instance = core.DefaultInstance
	}
	return &IncomeService{
		store:    store,
		instance: instance,
		events:   events,
		logger:   emilog.NewStructuredLogger(logger.WithComponent(emilog.ComponentIncome)),
		now:      time.Now,
	}
}

func (s *IncomeService) Instance() string {
	return s.instance
}

// Get returns the income row, creating it with a zero income on first access.
func (s *IncomeService) Get(ctx context.Context) (core.Income, error) {
	inc, err := s.store.GetOrCreateIncome(ctx, s.instance, s.now())
	if err != nil {
		return core.Income{}, fmt.Errorf("get income: %w", err)
	}
	return inc, nil
}

// Update applies the patch to the existing row, or creates the row from the
// patch when none exists yet.
func (s *IncomeService) Update(ctx context.Context, p core.IncomePatch) (core.Income, error) {
	now := s.now()

	var next core.Income
	current, err := s.store.GetIncome(ctx, s.instance)
	switch {
	case errors.Is(err, core.ErrNotFound):
		next, err = p.NewIncome(s.instance, now)
	case err != nil:
		return core.Income{}, fmt.Errorf("get income: %w", err)
	default:
		next, err = p.ApplyTo(current, now)
	}
	if err != nil {
		return core.Income{}, err
	}

	saved, err := s.store.SaveIncome(ctx, next)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	ev := amqp.NewIncomeEvent(s.instance)
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish change event", err, emilog.ComponentAMQP, emilog.OpPublish,
			emilog.LogFields{emilog.FieldEventType: string(ev.Type), emilog.FieldInstance: s.instance})
	}
	return saved, nil
}
