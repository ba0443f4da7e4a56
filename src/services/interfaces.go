package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/TreyDong/notion-csv-importer/src/models"
	"github.com/TreyDong/notion-csv-importer/src/notion"
)

var (
	// ErrParsingFailed marks file-level parse problems (bad header, unreadable
	// content). Row-level problems are carried in the result, not here.
	ErrParsingFailed = errors.New("error parsing file")

	// ErrDestinationUnavailable marks a failure to read the dedup baseline
	// from the destination. Importing without it could double-import rows.
	ErrDestinationUnavailable = errors.New("destination unavailable")
)

// TransactionStore is the remote transaction collection: the dedup baseline
// read plus the per-row create call.
type TransactionStore interface {
	ExistingOrderNumbers(ctx context.Context) (map[string]struct{}, error)
	CreateTransaction(ctx context.Context, props notion.Properties) error
}

// RunLedger persists finished runs for the history endpoints.
type RunLedger interface {
	SaveRun(result *models.ImportResult) error
	ListRuns(limit int) ([]models.ImportResult, error)
	GetRun(runID string) (*models.ImportResult, error)
}

// ImportOptions are the per-upload knobs from the form; zero values fall back
// to the configured defaults.
type ImportOptions struct {
	Filename     string
	Format       string // "csv" or "txt"
	Encoding     string
	RowLimit     int
	BatchSize    int
	RequestDelay time.Duration
}

// ImportService runs the import pipeline for one uploaded file.
type ImportService interface {
	// ProcessImport runs the full pipeline for one uploaded file.
	// Row-level failures never abort the run; only file-level failures return
	// a nil result. On cancellation the partial result is returned together
	// with the context error.
	ProcessImport(ctx context.Context, file io.Reader, opts ImportOptions) (*models.ImportResult, error)

	GetImportResult(ctx context.Context, runID string) (*models.ImportResult, error)
	ListImportRuns(ctx context.Context, limit int) ([]models.ImportResult, error)
}
