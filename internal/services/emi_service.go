package services

import (
	"context"
	"fmt"
	"time"

	"emipilot/internal/amqp"
	"emipilot/internal/core"
	emilog "emipilot/internal/log"
	"emipilot/internal/storage"
)

// EMIService validates EMI changes, persists them and announces them.
type EMIService struct {
	store  storage.EMIStore
	events EventPublisher
	logger *emilog.StructuredLogger
	now    func() time.Time
}

func NewEMIService(store storage.EMIStore, events EventPublisher, logger *emilog.Logger) *EMIService {
	if events == nil {
		events = NoopPublisher{}
	}
	return &EMIService{
		store:  store,
		events: events,
		logger: emilog.NewStructuredLogger(logger.WithComponent(emilog.ComponentEMI)),
		now:    time.Now,
	}
}

func (s *EMIService) List(ctx context.Context) ([]core.EMI, error) {
	emis, err := s.store.ListEMIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list emis: %w", err)
	}
	return emis, nil
}

func (s *EMIService) Get(ctx context.Context, id int64) (core.EMI, error) {
	return s.store.GetEMI(ctx, id)
}

// Create validates the patch as a full record and stores it.
func (s *EMIService) Create(ctx context.Context, p core.EMIPatch) (core.EMI, error) {
	e, err := p.NewEMI(s.now())
	if err != nil {
		return core.EMI{}, err
	}

	created, err := s.store.CreateEMI(ctx, e)
	if err != nil {
		return core.EMI{}, fmt.Errorf("create emi: %w", err)
	}

	s.logger.LogEMIChange(ctx, emilog.OpCreate, created.ID, created.Name, created.MonthlyAmount.String(), created.DueDate)
	s.publish(ctx, amqp.NewEMIEvent(amqp.EMICreated, created.ID))
	return created, nil
}

// Update merges the patch onto the stored record. Nothing is written when the
// merged record fails validation.
func (s *EMIService) Update(ctx context.Context, id int64, p core.EMIPatch) (core.EMI, error) {
	current, err := s.store.GetEMI(ctx, id)
	if err != nil {
		return core.EMI{}, err
	}

	merged, err := p.ApplyTo(current)
	if err != nil {
		return core.EMI{}, err
	}

	updated, err := s.store.UpdateEMI(ctx, merged)
	if err != nil {
		return core.EMI{}, fmt.Errorf("update emi: %w", err)
	}

	s.logger.LogEMIChange(ctx, emilog.OpUpdate, updated.ID, updated.Name, updated.MonthlyAmount.String(), updated.DueDate)
	s.publish(ctx, amqp.NewEMIEvent(amqp.EMIUpdated, updated.ID))
	return updated, nil
}

// Delete removes the record and returns it as it was before removal.
func (s *EMIService) Delete(ctx context.Context, id int64) (core.EMI, error) {
	snapshot, err := s.store.GetEMI(ctx, id)
	if err != nil {
		return core.EMI{}, err
	}

	if err := s.store.DeleteEMI(ctx, id); err != nil {
		return core.EMI{}, fmt.Errorf("delete emi: %w", err)
	}

	s.logger.LogEMIChange(ctx, emilog.OpDelete, snapshot.ID, snapshot.Name, snapshot.MonthlyAmount.String(), snapshot.DueDate)
	s.publish(ctx, amqp.NewEMIEvent(amqp.EMIDeleted, snapshot.ID))
	return snapshot, nil
}

func (s *EMIService) Summary(ctx context.Context) (core.Summary, error) {
	emis, err := s.List(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Summarize(emis), nil
}

// Timeline groups the EMIs by week of the month.
func (s *EMIService) Timeline(ctx context.Context) ([]core.WeekBucket, error) {
	emis, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return core.GroupByWeek(emis), nil
}

// publish never fails the caller; the write has already been committed.
func (s *EMIService) publish(ctx context.Context, ev *amqp.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish change event", err, emilog.ComponentAMQP, emilog.OpPublish,
			emilog.LogFields{emilog.FieldEventType: string(ev.Type), emilog.FieldEMIID: ev.ID})
	}
}
