package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_MonthlyOutcomes(t *testing.T) {
	f := newFixture(t, FirstSelector{})
	ctx := context.Background()
	f.addOffer(t, 100, 40)
	f.addContract(t, "A", 1000, true)
	f.addContract(t, "B", 600, true)
	f.addContract(t, "C", 50, true)

	a := f.openWithOffer(t, "A")
	_, err := f.cases.ResolveOffer(ctx, a.ID, true)
	require.NoError(t, err)
	b := f.openWithOffer(t, "B")
	_, err = f.cases.ResolveOffer(ctx, b.ID, false)
	require.NoError(t, err)
	_, err = f.cases.OpenCase(ctx, "C", "")
	require.NoError(t, err)

	summary, err := NewStatsService(f.store.Cases()).MonthlyOutcomes(ctx)
	require.NoError(t, err)

	require.Len(t, summary.Buckets, 2)
	assert.Equal(t, "2025-04", summary.Buckets[0].Month)
	assert.InDelta(t, 1000, summary.Income, 0.001)
	assert.InDelta(t, 40, summary.Expenses, 0.001)
	assert.InDelta(t, 960, summary.Profit, 0.001)
	assert.Equal(t, int64(1), summary.Retained)
	assert.Equal(t, int64(2), summary.Churned)
}

func TestStats_EmptyStore(t *testing.T) {
	f := newFixture(t, FirstSelector{})
	summary, err := NewStatsService(f.store.Cases()).MonthlyOutcomes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summary.Buckets)
	assert.Zero(t, summary.Profit)
}
