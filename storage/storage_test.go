package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/shop"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.CreateRun("run-1", 42))

	run, err := s.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.Seed)
	assert.Nil(t, run.EndedAt)
	assert.Equal(t, "running", run.Outcome)

	require.NoError(t, s.FinishRun("run-1", shop.Snapshot{
		Day: 7, Balance: 512000, Served: 900, Lost: 40,
		FinesPaid: 3, FinesTotal: 4200, Outcome: "victory",
	}))

	run, err = s.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, run.EndedAt)
	assert.Equal(t, 7, run.Days)
	assert.Equal(t, "victory", run.Outcome)
	assert.InDelta(t, 512000.0, run.FinalBalance, 1e-9)
}

func TestDayReportsKeepOrder(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.CreateRun("run-1", 1))

	for day := 1; day <= 3; day++ {
		require.NoError(t, s.SaveDayReport("run-1", economy.DayReport{
			Day: day, Income: float64(1000 * day), Expenses: 6900, Balance: float64(50000 - 900*day),
		}))
	}

	reports, err := s.DayReports("run-1")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, 1, reports[0].Day)
	assert.InDelta(t, 3000.0, reports[2].Income, 1e-9)

	empty, err := s.DayReports("missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.CreateRun("a", 1))
	require.NoError(t, s.CreateRun("b", 2))

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
