package processors

import (
	"context"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

// OrderNumberProvider reads the order numbers already present in the
// destination. Injected so the dedup filter can be tested without a live API.
type OrderNumberProvider interface {
	ExistingOrderNumbers(ctx context.Context) (map[string]struct{}, error)
}

// HoldingStore is the remote capability the resolver needs: look up a holding
// page by security code, or create one.
type HoldingStore interface {
	QueryHoldingByCode(ctx context.Context, securityCode string) (pageID string, found bool, err error)
	CreateHolding(ctx context.Context, rec models.HoldingRecord) (pageID string, err error)
}
