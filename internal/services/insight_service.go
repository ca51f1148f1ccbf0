package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"emipilot/internal/core"
	emilog "emipilot/internal/log"
)

// InsightService derives stress figures and advice from the stored EMIs and
// income.
type InsightService struct {
	emis   *EMIService
	income *IncomeService
	logger *emilog.Logger
}

func NewInsightService(emis *EMIService, income *IncomeService, logger *emilog.Logger) *InsightService {
	return &InsightService{
		emis:   emis,
		income: income,
		logger: logger.WithComponent(emilog.ComponentInsight),
	}
}

// load reads the EMIs and the income concurrently.
func (s *InsightService) load(ctx context.Context) ([]core.EMI, float64, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		emis   []core.EMI
		income core.Income
	)
	g.Go(func() error {
		var err error
		emis, err = s.emis.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.income.Get(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "Failed to load insight inputs", emilog.FieldError, err)
		return nil, 0, fmt.Errorf("load insight inputs: %w", err)
	}
	return emis, income.MonthlyIncome.InexactFloat64(), nil
}

func (s *InsightService) Stress(ctx context.Context) (core.Stress, error) {
	emis, income, err := s.load(ctx)
	if err != nil {
		return core.Stress{}, err
	}
	stress := core.CalculateStress(emis, income)
	s.logger.DebugContext(ctx, "Computed EMI stress",
		"stress_percentage", stress.StressPercentage,
		"health_status", stress.HealthStatus)
	return stress, nil
}

func (s *InsightService) Insights(ctx context.Context) ([]core.Insight, error) {
	emis, income, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return core.GenerateInsights(emis, income), nil
}
