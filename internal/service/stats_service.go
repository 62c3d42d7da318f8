package service

import (
	"context"

	"github.com/Manuloff/customer-retention/internal/domain"
	"github.com/Manuloff/customer-retention/internal/repository"
)

// StatsService serves the analytics read path over closed cases.
type StatsService struct {
	cases repository.CaseRepository
}

// NewStatsService constructs the service.
func NewStatsService(cases repository.CaseRepository) *StatsService {
	return &StatsService{cases: cases}
}

// StatsSummary totals the monthly buckets.
type StatsSummary struct {
	Buckets  []domain.OutcomeBucket `json:"buckets"`
	Income   float64                `json:"income"`
	Expenses float64                `json:"expenses"`
	Profit   float64                `json:"profit"`
	Retained int64                  `json:"retained"`
	Churned  int64                  `json:"churned"`
}

// MonthlyOutcomes aggregates closed cases per month and offer type.
// Income is the monthly profit of retained contracts; expenses are the
// cost of the offers that retained them.
func (s *StatsService) MonthlyOutcomes(ctx context.Context) (*StatsSummary, error) {
	buckets, err := s.cases.MonthlyOutcomes(ctx)
	if err != nil {
		return nil, storeError(err, "case", nil)
	}
	summary := &StatsSummary{Buckets: buckets}
	if summary.Buckets == nil {
		summary.Buckets = []domain.OutcomeBucket{}
	}
	for _, b := range buckets {
		summary.Income += b.Income
		summary.Expenses += b.Expenses
		summary.Retained += b.Retained
		summary.Churned += b.Churned
	}
	summary.Profit = summary.Income - summary.Expenses
	return summary, nil
}
