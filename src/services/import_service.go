package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
	"github.com/TreyDong/notion-csv-importer/src/parsers"
	"github.com/TreyDong/notion-csv-importer/src/processors"
)

const (
	resultCacheExpiration      = 15 * time.Minute
	resultCacheCleanupInterval = 30 * time.Minute
)

// ImportDefaults are the configured fallbacks for per-upload options.
type ImportDefaults struct {
	Encoding     string
	BatchSize    int
	RowLimit     int
	RequestDelay time.Duration
	Retry        RetryPolicy
}

type importServiceImpl struct {
	txStore      TransactionStore
	holdingStore processors.HoldingStore
	ledger       RunLedger
	defaults     ImportDefaults
	resultCache  *cache.Cache
}

func NewImportService(txStore TransactionStore, holdingStore processors.HoldingStore, ledger RunLedger, defaults ImportDefaults) ImportService {
	return &importServiceImpl{
		txStore:      txStore,
		holdingStore: holdingStore,
		ledger:       ledger,
		defaults:     defaults,
		resultCache:  cache.New(resultCacheExpiration, resultCacheCleanupInterval),
	}
}

func (s *importServiceImpl) ProcessImport(ctx context.Context, file io.Reader, opts ImportOptions) (*models.ImportResult, error) {
	opts = s.applyDefaults(opts)
	runID := uuid.NewString()
	startedAt := time.Now()
	logger.L.Info("ProcessImport START", "runID", runID, "filename", opts.Filename, "format", opts.Format, "encoding", opts.Encoding)

	// Parsing
	parser, err := parsers.GetParser(opts.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rows, rowFailures, err := parser.Parse(file, opts.Encoding)
	if err != nil {
		if errors.Is(err, parsers.ErrFileDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if opts.RowLimit > 0 && len(rows) > opts.RowLimit {
		logger.L.Info("Applying row limit", "runID", runID, "limit", opts.RowLimit, "parsed", len(rows))
		rows = rows[:opts.RowLimit]
	}
	total := len(rows) + len(rowFailures)

	// Deduplicating
	dedup := processors.NewDedupFilter(s.txStore)
	toImport, skipped, err := dedup.Filter(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDestinationUnavailable, err)
	}
	rowFailures = append(rowFailures, skipped...)

	// Resolving + Linking. The resolver cache is scoped to this run.
	resolver := processors.NewHoldingResolver(s.holdingStore)
	linker := processors.NewRelationLinker()
	items := make([]DispatchItem, 0, len(toImport))
	for _, row := range toImport {
		if ctx.Err() != nil {
			return s.summarize(runID, opts.Filename, startedAt, total, 0, rowFailures), ctx.Err()
		}
		pageID, err := resolver.Resolve(ctx, row)
		if err != nil {
			logger.L.Warn("Holding resolution failed", "runID", runID, "row", processors.RowKey(row), "error", err)
			rowFailures = append(rowFailures, models.RowFailure{
				Line:        row.Line,
				OrderNumber: row.OrderNumber,
				Reason:      models.ReasonHoldingCreationFailed,
				Detail:      err.Error(),
			})
			continue
		}
		items = append(items, DispatchItem{Row: row, Properties: linker.Link(row, pageID)})
	}

	// Dispatching
	dispatcher := NewDispatcher(s.txStore, opts.BatchSize, opts.RequestDelay, s.defaults.Retry)
	outcomes, dispatchErr := dispatcher.Dispatch(ctx, items)
	imported := 0
	for _, outcome := range outcomes {
		if outcome.Failure == nil {
			imported++
		} else {
			rowFailures = append(rowFailures, *outcome.Failure)
		}
	}

	// Summarizing always runs, even after partial failures.
	result := s.summarize(runID, opts.Filename, startedAt, total, imported, rowFailures)
	logger.L.Info("ProcessImport END",
		"runID", runID,
		"total", result.Total,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", time.Since(startedAt))
	return result, dispatchErr
}

// summarize builds the run summary, caches it, and records it in the ledger.
func (s *importServiceImpl) summarize(runID, filename string, startedAt time.Time, total, imported int, failures []models.RowFailure) *models.ImportResult {
	sort.SliceStable(failures, func(i, j int) bool { return failures[i].Line < failures[j].Line })

	skipped, failed := 0, 0
	for _, f := range failures {
		if f.Reason == models.ReasonDuplicateOrderNumber {
			skipped++
		} else {
			failed++
		}
	}
	if failures == nil {
		failures = []models.RowFailure{}
	}

	result := &models.ImportResult{
		RunID:      runID,
		Filename:   filename,
		Total:      total,
		Imported:   imported,
		Skipped:    skipped,
		Failed:     failed,
		Failures:   failures,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}

	s.resultCache.Set(runID, result, cache.DefaultExpiration)
	if s.ledger != nil {
		if err := s.ledger.SaveRun(result); err != nil {
			logger.L.Error("Failed to record import run in ledger", "runID", runID, "error", err)
		}
	}
	return result
}

func (s *importServiceImpl) GetImportResult(ctx context.Context, runID string) (*models.ImportResult, error) {
	if cached, found := s.resultCache.Get(runID); found {
		logger.L.Debug("Cache hit for import result", "runID", runID)
		return cached.(*models.ImportResult), nil
	}
	if s.ledger == nil {
		return nil, fmt.Errorf("import run %s not found", runID)
	}
	result, err := s.ledger.GetRun(runID)
	if err != nil {
		return nil, err
	}
	s.resultCache.Set(runID, result, cache.DefaultExpiration)
	return result, nil
}

func (s *importServiceImpl) ListImportRuns(ctx context.Context, limit int) ([]models.ImportResult, error) {
	if s.ledger == nil {
		return []models.ImportResult{}, nil
	}
	return s.ledger.ListRuns(limit)
}

func (s *importServiceImpl) applyDefaults(opts ImportOptions) ImportOptions {
	if opts.Format == "" {
		opts.Format = "csv"
	}
	if opts.Encoding == "" {
		opts.Encoding = s.defaults.Encoding
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = s.defaults.BatchSize
	}
	if opts.RowLimit == 0 {
		opts.RowLimit = s.defaults.RowLimit
	}
	if opts.RequestDelay <= 0 {
		opts.RequestDelay = s.defaults.RequestDelay
	}
	return opts
}
