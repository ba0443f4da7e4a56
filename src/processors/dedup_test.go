package processors

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

type fakeOrderNumberProvider struct {
	existing map[string]struct{}
	err      error
	calls    int
}

func (f *fakeOrderNumberProvider) ExistingOrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.existing == nil {
		return map[string]struct{}{}, nil
	}
	return f.existing, nil
}

func txRow(line int, code, orderNumber string) models.TransactionRow {
	return models.TransactionRow{Line: line, SecurityCode: code, OrderNumber: orderNumber}
}

func TestDedupFilterSeparatesRemoteAndInFileDuplicates(t *testing.T) {
	provider := &fakeOrderNumberProvider{existing: map[string]struct{}{"A1": {}}}
	filter := NewDedupFilter(provider)

	rows := []models.TransactionRow{
		txRow(2, "600000", "A1"), // already imported
		txRow(3, "600000", "A2"),
		txRow(4, "600000", "A2"), // repeated within the file
		txRow(5, "600519", "A3"),
	}

	toImport, skipped, err := filter.Filter(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	require.Len(t, toImport, 2)
	assert.Equal(t, "A2", toImport[0].OrderNumber)
	assert.Equal(t, 3, toImport[0].Line)
	assert.Equal(t, "A3", toImport[1].OrderNumber)

	require.Len(t, skipped, 2)
	assert.Equal(t, 2, skipped[0].Line)
	assert.Equal(t, "A1", skipped[0].OrderNumber)
	assert.Equal(t, models.ReasonDuplicateOrderNumber, skipped[0].Reason)
	assert.Equal(t, 4, skipped[1].Line)
	assert.Equal(t, "A2", skipped[1].OrderNumber)
}

func TestDedupFilterRerunSkipsEverything(t *testing.T) {
	provider := &fakeOrderNumberProvider{existing: map[string]struct{}{"A1": {}, "A2": {}}}
	filter := NewDedupFilter(provider)

	rows := []models.TransactionRow{
		txRow(2, "600000", "A1"),
		txRow(3, "600519", "A2"),
	}

	toImport, skipped, err := filter.Filter(context.Background(), rows)
	require.NoError(t, err)
	assert.Empty(t, toImport)
	assert.Len(t, skipped, 2)
}

func TestDedupFilterFailsWithoutBaseline(t *testing.T) {
	provider := &fakeOrderNumberProvider{err: errors.New("boom")}
	filter := NewDedupFilter(provider)

	toImport, skipped, err := filter.Filter(context.Background(), []models.TransactionRow{txRow(2, "600000", "A1")})
	require.Error(t, err)
	assert.Nil(t, toImport)
	assert.Nil(t, skipped)
}
