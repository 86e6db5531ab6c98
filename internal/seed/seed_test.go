package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-alloy/internal/process"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRun_PopulatesEveryTable(t *testing.T) {
	ctx := context.Background()
	s := process.NewMemoryStore(process.WithClock(func() time.Time { return now }))

	sum, err := Run(ctx, s, NewRand(DefaultSeed), now)
	require.NoError(t, err)
	assert.Equal(t, Summary{Compositions: 3, ProcessData: 50, Inventory: 6, Alerts: 3}, sum)

	rows, err := s.FetchRecentSamples(ctx, 24, "")
	require.NoError(t, err)
	require.Len(t, rows, 50)
	for _, r := range rows {
		assert.Contains(t, []string{"F001", "F002", "F003"}, r.FurnaceID)
		assert.InDelta(t, 1550, r.Temperature, 100)
		assert.LessOrEqual(t, r.Composition.Sum(), 100+1e-9)
		require.NotNil(t, r.QualityScore)
		assert.InDelta(t, 91.5, *r.QualityScore, 6.5)
	}

	inv, err := s.ListInventory(ctx)
	require.NoError(t, err)
	for _, it := range inv {
		assert.InDelta(t, 275, it.Quantity, 225)
		assert.Regexp(t, `^Supplier [1-5]$`, it.Supplier)
	}

	n, err := s.CountActiveAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRun_Deterministic(t *testing.T) {
	ctx := context.Background()
	temps := func() []float64 {
		s := process.NewMemoryStore()
		_, err := Run(ctx, s, NewRand(7), now)
		require.NoError(t, err)
		rows, err := s.ListProcessData(ctx, process.ProcessListOpts{Ascending: true})
		require.NoError(t, err)
		out := make([]float64, len(rows))
		for i, r := range rows {
			out[i] = r.Temperature
		}
		return out
	}
	assert.Equal(t, temps(), temps())
}

func TestRun_RepeatSkipsNamedRecords(t *testing.T) {
	ctx := context.Background()
	s := process.NewMemoryStore()
	_, err := Run(ctx, s, NewRand(1), now)
	require.NoError(t, err)

	sum, err := Run(ctx, s, NewRand(2), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Compositions)
	assert.Equal(t, 0, sum.Inventory)
	assert.Equal(t, 50, sum.ProcessData)

	comps, err := s.ListCompositions(ctx, process.CompositionListOpts{})
	require.NoError(t, err)
	assert.Len(t, comps, 3)
}
