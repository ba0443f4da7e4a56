package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	InitDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { DB.Close() })
	return NewLedger(DB)
}

func sampleResult(runID string, startedAt time.Time) *models.ImportResult {
	return &models.ImportResult{
		RunID:    runID,
		Filename: "trades.csv",
		Total:    4,
		Imported: 2,
		Skipped:  1,
		Failed:   1,
		Failures: []models.RowFailure{
			{Line: 2, OrderNumber: "A1", Reason: models.ReasonDuplicateOrderNumber, Detail: "order number already imported"},
			{Line: 5, OrderNumber: "A4", Reason: models.ReasonRemoteError, Detail: "validation_error"},
		},
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(3 * time.Second),
	}
}

func TestLedgerSaveAndGetRun(t *testing.T) {
	ledger := testLedger(t)
	startedAt := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.SaveRun(sampleResult("run-1", startedAt)))

	got, err := ledger.GetRun("run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "trades.csv", got.Filename)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 2, got.Imported)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 1, got.Failed)
	assert.True(t, got.StartedAt.Equal(startedAt))

	require.Len(t, got.Failures, 2)
	assert.Equal(t, 2, got.Failures[0].Line)
	assert.Equal(t, models.ReasonDuplicateOrderNumber, got.Failures[0].Reason)
	assert.Equal(t, "A4", got.Failures[1].OrderNumber)
}

func TestLedgerGetRunNotFound(t *testing.T) {
	ledger := testLedger(t)

	_, err := ledger.GetRun("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLedgerListRunsNewestFirst(t *testing.T) {
	ledger := testLedger(t)
	base := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.SaveRun(sampleResult("run-old", base)))
	require.NoError(t, ledger.SaveRun(sampleResult("run-new", base.Add(time.Hour))))

	runs, err := ledger.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-old", runs[1].RunID)

	limited, err := ledger.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-new", limited[0].RunID)
}

func TestLedgerListRunsEmpty(t *testing.T) {
	ledger := testLedger(t)

	runs, err := ledger.ListRuns(0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
