package processors

import (
	"context"
	"fmt"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
)

// DedupFilter partitions parsed rows into rows to import and rows whose order
// number is already present in the destination. It also catches order numbers
// repeated within the same file, since the remote set cannot know about rows
// committed later in the same run.
type DedupFilter struct {
	provider OrderNumberProvider
}

func NewDedupFilter(provider OrderNumberProvider) *DedupFilter {
	return &DedupFilter{provider: provider}
}

// Filter returns the importable rows in input order and one RowFailure per
// skipped duplicate. The returned error is file-level: without the remote
// order-number set a duplicate could be imported twice, so the run must not
// proceed.
func (f *DedupFilter) Filter(ctx context.Context, rows []models.TransactionRow) ([]models.TransactionRow, []models.RowFailure, error) {
	existing, err := f.provider.ExistingOrderNumbers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching existing order numbers: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	var (
		toImport []models.TransactionRow
		skipped  []models.RowFailure
	)
	for _, row := range rows {
		if _, dup := existing[row.OrderNumber]; dup {
			logger.L.Debug("Skipping already-imported order number", "orderNumber", row.OrderNumber, "line", row.Line)
			skipped = append(skipped, duplicateFailure(row, "order number already imported"))
			continue
		}
		if _, dup := seen[row.OrderNumber]; dup {
			logger.L.Debug("Skipping order number repeated within file", "orderNumber", row.OrderNumber, "line", row.Line)
			skipped = append(skipped, duplicateFailure(row, "order number repeated within file"))
			continue
		}
		seen[row.OrderNumber] = struct{}{}
		toImport = append(toImport, row)
	}

	return toImport, skipped, nil
}

func duplicateFailure(row models.TransactionRow, detail string) models.RowFailure {
	return models.RowFailure{
		Line:        row.Line,
		OrderNumber: row.OrderNumber,
		Reason:      models.ReasonDuplicateOrderNumber,
		Detail:      detail,
	}
}
