package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreyDong/notion-csv-importer/src/models"
	"github.com/TreyDong/notion-csv-importer/src/notion"
)

// fakeTransactionStore fails specific order numbers a configured number of
// times before succeeding. failCount -1 means fail forever.
type fakeTransactionStore struct {
	mu       sync.Mutex
	existing map[string]struct{}
	created  []notion.Properties
	attempts map[string]int

	failWith  error
	failCount map[string]int

	existingErr error
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{
		existing:  make(map[string]struct{}),
		attempts:  make(map[string]int),
		failCount: make(map[string]int),
	}
}

func (f *fakeTransactionStore) ExistingOrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existingErr != nil {
		return nil, f.existingErr
	}
	out := make(map[string]struct{}, len(f.existing))
	for k := range f.existing {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeTransactionStore) CreateTransaction(ctx context.Context, props notion.Properties) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	orderNo := orderNumberOf(props)
	f.attempts[orderNo]++
	if remaining, ok := f.failCount[orderNo]; ok && remaining != 0 {
		if remaining > 0 {
			f.failCount[orderNo] = remaining - 1
		}
		return f.failWith
	}
	f.created = append(f.created, props)
	f.existing[orderNo] = struct{}{}
	return nil
}

func orderNumberOf(props notion.Properties) string {
	prop, ok := props[notion.PropOrderNumber].(map[string]any)
	if !ok {
		return ""
	}
	fragments, _ := prop["rich_text"].([]any)
	if len(fragments) == 0 {
		return ""
	}
	text, _ := fragments[0].(map[string]any)["text"].(map[string]any)
	content, _ := text["content"].(string)
	return content
}

func dispatchItems(orderNumbers ...string) []DispatchItem {
	items := make([]DispatchItem, 0, len(orderNumbers))
	for i, orderNo := range orderNumbers {
		row := models.TransactionRow{Line: i + 2, SecurityCode: "600000", OrderNumber: orderNo}
		items = append(items, DispatchItem{
			Row:        row,
			Properties: notion.Properties{notion.PropOrderNumber: notion.RichTextProperty(orderNo)},
		})
	}
	return items
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestDispatcherDeliversAllRows(t *testing.T) {
	store := newFakeTransactionStore()
	d := NewDispatcher(store, 2, 0, DefaultRetryPolicy(3, time.Millisecond))
	d.sleep = noSleep

	outcomes, err := d.Dispatch(context.Background(), dispatchItems("A1", "A2", "A3", "A4", "A5"))
	require.NoError(t, err)
	require.Len(t, outcomes, 5)
	for _, o := range outcomes {
		assert.Nil(t, o.Failure)
	}
	assert.Len(t, store.created, 5)
}

func TestDispatcherRetriesThrottledRows(t *testing.T) {
	store := newFakeTransactionStore()
	store.failWith = &notion.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
	store.failCount["A2"] = 2 // succeeds on the third attempt
	d := NewDispatcher(store, 2, 0, DefaultRetryPolicy(5, time.Millisecond))
	d.sleep = noSleep

	outcomes, err := d.Dispatch(context.Background(), dispatchItems("A1", "A2", "A3"))
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.Nil(t, o.Failure)
	}
	assert.Equal(t, 3, store.attempts["A2"])
}

func TestDispatcherGivesUpAfterRetryCap(t *testing.T) {
	store := newFakeTransactionStore()
	store.failWith = &notion.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
	store.failCount["A3"] = -1 // never recovers
	d := NewDispatcher(store, 2, 0, DefaultRetryPolicy(3, time.Millisecond))
	d.sleep = noSleep

	outcomes, err := d.Dispatch(context.Background(), dispatchItems("A1", "A2", "A3", "A4", "A5"))
	require.NoError(t, err)
	require.Len(t, outcomes, 5)

	imported := 0
	var failed []*models.RowFailure
	for _, o := range outcomes {
		if o.Failure == nil {
			imported++
		} else {
			failed = append(failed, o.Failure)
		}
	}
	assert.Equal(t, 4, imported)
	require.Len(t, failed, 1)
	assert.Equal(t, "A3", failed[0].OrderNumber)
	assert.Equal(t, models.ReasonRateLimitExceeded, failed[0].Reason)
	assert.Equal(t, 3, store.attempts["A3"])
}

func TestDispatcherFailsNonThrottledErrorsImmediately(t *testing.T) {
	store := newFakeTransactionStore()
	store.failWith = &notion.APIError{StatusCode: http.StatusBadRequest, Message: "validation_error"}
	store.failCount["A1"] = -1
	d := NewDispatcher(store, 10, 0, DefaultRetryPolicy(5, time.Millisecond))
	d.sleep = noSleep

	outcomes, err := d.Dispatch(context.Background(), dispatchItems("A1", "A2"))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	require.NotNil(t, outcomes[0].Failure)
	assert.Equal(t, models.ReasonRemoteError, outcomes[0].Failure.Reason)
	assert.Equal(t, 1, store.attempts["A1"], "no retries for non-throttling errors")
	assert.Nil(t, outcomes[1].Failure, "the batch continues past a failed row")
}

func TestDispatcherStopsOnCancellation(t *testing.T) {
	store := newFakeTransactionStore()
	ctx, cancel := context.WithCancel(context.Background())

	d := NewDispatcher(store, 2, 0, DefaultRetryPolicy(3, time.Millisecond))
	d.sleep = noSleep
	created := 0
	d.store = transactionStoreFunc{
		existing: store.ExistingOrderNumbers,
		create: func(ctx context.Context, props notion.Properties) error {
			created++
			if created == 2 {
				cancel()
			}
			return store.CreateTransaction(ctx, props)
		},
	}

	outcomes, err := d.Dispatch(ctx, dispatchItems("A1", "A2", "A3", "A4"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, outcomes, 2, "outcomes gathered before cancellation are kept: %v", outcomes)
}

// transactionStoreFunc adapts bare funcs to TransactionStore for tests.
type transactionStoreFunc struct {
	existing func(ctx context.Context) (map[string]struct{}, error)
	create   func(ctx context.Context, props notion.Properties) error
}

func (s transactionStoreFunc) ExistingOrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	return s.existing(ctx)
}

func (s transactionStoreFunc) CreateTransaction(ctx context.Context, props notion.Properties) error {
	return s.create(ctx, props)
}
