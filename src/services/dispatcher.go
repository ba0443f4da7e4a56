package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
	"github.com/TreyDong/notion-csv-importer/src/notion"
)

// DispatchItem is one linked row ready for delivery.
type DispatchItem struct {
	Row        models.TransactionRow
	Properties notion.Properties
}

// RowOutcome is the per-row dispatch result. A nil Failure means the row was
// imported.
type RowOutcome struct {
	Row     models.TransactionRow
	Failure *models.RowFailure
}

// Dispatcher delivers linked rows to the transaction store in consecutive
// batches. Rows within a batch are submitted one at a time, paced by the
// limiter; throttled rows are retried with backoff, anything else fails just
// that row and the batch continues.
type Dispatcher struct {
	store     TransactionStore
	limiter   *rate.Limiter
	retry     RetryPolicy
	batchSize int
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(store TransactionStore, batchSize int, requestDelay time.Duration, retry RetryPolicy) *Dispatcher {
	limit := rate.Inf
	if requestDelay > 0 {
		limit = rate.Every(requestDelay)
	}
	return &Dispatcher{
		store:     store,
		limiter:   rate.NewLimiter(limit, 1),
		retry:     retry,
		batchSize: batchSize,
		sleep:     sleepCtx,
	}
}

// Dispatch submits every item and returns one outcome per item attempted.
// The only error it returns is context cancellation, in which case the
// outcomes gathered so far are still returned.
func (d *Dispatcher) Dispatch(ctx context.Context, items []DispatchItem) ([]RowOutcome, error) {
	outcomes := make([]RowOutcome, 0, len(items))

	for start := 0; start < len(items); start += d.batchSize {
		end := start + d.batchSize
		if end > len(items) {
			end = len(items)
		}
		logger.L.Debug("Dispatching batch", "from", start, "to", end, "total", len(items))

		for _, item := range items[start:end] {
			if err := d.limiter.Wait(ctx); err != nil {
				return outcomes, err
			}
			failure, err := d.submit(ctx, item)
			if err != nil {
				return outcomes, err
			}
			outcomes = append(outcomes, RowOutcome{Row: item.Row, Failure: failure})
		}
	}

	return outcomes, nil
}

// submit creates one transaction page, retrying throttled responses up to the
// policy cap. The returned error is reserved for context cancellation.
func (d *Dispatcher) submit(ctx context.Context, item DispatchItem) (*models.RowFailure, error) {
	for attempt := 1; ; attempt++ {
		err := d.store.CreateTransaction(ctx, item.Properties)
		if err == nil {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !notion.IsRateLimited(err) {
			logger.L.Warn("Transaction create failed", "orderNumber", item.Row.OrderNumber, "line", item.Row.Line, "error", err)
			return &models.RowFailure{
				Line:        item.Row.Line,
				OrderNumber: item.Row.OrderNumber,
				Reason:      models.ReasonRemoteError,
				Detail:      err.Error(),
			}, nil
		}

		if attempt >= d.retry.MaxAttempts {
			logger.L.Warn("Retry cap exceeded for throttled row", "orderNumber", item.Row.OrderNumber, "attempts", attempt)
			return &models.RowFailure{
				Line:        item.Row.Line,
				OrderNumber: item.Row.OrderNumber,
				Reason:      models.ReasonRateLimitExceeded,
				Detail:      err.Error(),
			}, nil
		}

		delay := d.retry.Delay(attempt)
		logger.L.Debug("Throttled by destination, backing off", "orderNumber", item.Row.OrderNumber, "attempt", attempt, "delay", delay)
		if err := d.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
