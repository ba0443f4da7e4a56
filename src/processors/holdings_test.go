package processors

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

type fakeHoldingStore struct {
	mu      sync.Mutex
	pages   map[string]string // security code -> page id
	queries int
	creates int

	queryErr      error
	createErr     error
	createErrOnce bool
}

func newFakeHoldingStore() *fakeHoldingStore {
	return &fakeHoldingStore{pages: make(map[string]string)}
}

func (f *fakeHoldingStore) QueryHoldingByCode(ctx context.Context, code string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return "", false, f.queryErr
	}
	id, ok := f.pages[code]
	return id, ok, nil
}

func (f *fakeHoldingStore) CreateHolding(ctx context.Context, rec models.HoldingRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		err := f.createErr
		if f.createErrOnce {
			f.createErr = nil
		}
		return "", err
	}
	id := "page-" + rec.SecurityCode
	f.pages[rec.SecurityCode] = id
	return id, nil
}

func TestHoldingResolverReturnsExistingPage(t *testing.T) {
	store := newFakeHoldingStore()
	store.pages["600000"] = "page-600000"
	resolver := NewHoldingResolver(store)

	pageID, err := resolver.Resolve(context.Background(), txRow(2, "600000", "A1"))
	require.NoError(t, err)
	assert.Equal(t, "page-600000", pageID)
	assert.Equal(t, 0, store.creates)
}

func TestHoldingResolverCreatesOnFirstReference(t *testing.T) {
	store := newFakeHoldingStore()
	resolver := NewHoldingResolver(store)
	row := models.TransactionRow{Line: 2, SecurityCode: "600000", SecurityName: "浦发银行", OrderNumber: "A1", Market: "沪A"}

	pageID, err := resolver.Resolve(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, "page-600000", pageID)
	assert.Equal(t, 1, store.creates)

	// Second resolve is served from the run cache.
	again, err := resolver.Resolve(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, pageID, again)
	assert.Equal(t, 1, store.queries)
	assert.Equal(t, 1, store.creates)
}

func TestHoldingResolverSingleFlight(t *testing.T) {
	store := newFakeHoldingStore()
	resolver := NewHoldingResolver(store)

	const workers = 16
	pageIDs := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pageIDs[i], errs[i] = resolver.Resolve(context.Background(), txRow(i+2, "600519", "A"+string(rune('0'+i%10))))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "page-600519", pageIDs[i])
	}
	assert.Equal(t, 1, store.creates, "concurrent resolves for one code must create exactly once")
}

func TestHoldingResolverDoesNotCacheFailures(t *testing.T) {
	store := newFakeHoldingStore()
	store.createErr = errors.New("boom")
	store.createErrOnce = true
	resolver := NewHoldingResolver(store)
	row := txRow(2, "600000", "A1")

	_, err := resolver.Resolve(context.Background(), row)
	require.Error(t, err)

	// A later row for the same code retries and succeeds.
	pageID, err := resolver.Resolve(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, "page-600000", pageID)
	assert.Equal(t, 2, store.creates)
}

func TestNewHoldingRecord(t *testing.T) {
	row := models.TransactionRow{SecurityCode: "600000", SecurityName: "浦发银行", Market: "沪A"}
	rec := NewHoldingRecord(row)
	assert.Equal(t, "浦发银行(600000)", rec.Title)
	assert.Equal(t, "沪市A股", rec.Market)
	assert.Equal(t, "A股", rec.SecurityType)
	assert.Equal(t, "SH", rec.ExchangeCode)
	assert.False(t, rec.OpenDate.IsZero())
}

func TestNewHoldingRecordNameFallsBackToCode(t *testing.T) {
	rec := NewHoldingRecord(models.TransactionRow{SecurityCode: "000001"})
	assert.Equal(t, "000001", rec.SecurityName)
	assert.Equal(t, "000001(000001)", rec.Title)
}

func TestSecurityTypeAndExchangeInference(t *testing.T) {
	tests := []struct {
		code         string
		securityType string
		exchange     string
	}{
		{"688981", "科创板", "SH"},
		{"588000", "科创板", "OTHER"},
		{"600000", "A股", "SH"},
		{"000001", "A股", "SZ"},
		{"300750", "A股", "SZ"},
		{"830799", "新三板", "OTHER"},
		{"430047", "新三板", "OTHER"},
		{"200011", "其他", "SZ"},
		{"110059", "其他", "OTHER"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.securityType, securityType(tt.code), "type of %s", tt.code)
		assert.Equal(t, tt.exchange, exchangeCode(tt.code), "exchange of %s", tt.code)
	}
}

func TestMarketName(t *testing.T) {
	assert.Equal(t, "沪市A股", marketName("沪A"))
	assert.Equal(t, "深市A股", marketName("深圳Ａ股"))
	assert.Equal(t, "上海Ａ股", marketName("上海Ａ股"))
}
