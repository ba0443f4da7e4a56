package notion

import (
	"context"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

// HoldingsDatabase binds a Client to one holdings database id. It satisfies
// the processors.HoldingStore capability.
type HoldingsDatabase struct {
	client     *Client
	databaseID string
}

func NewHoldingsDatabase(client *Client, databaseID string) *HoldingsDatabase {
	return &HoldingsDatabase{client: client, databaseID: databaseID}
}

func (d *HoldingsDatabase) QueryHoldingByCode(ctx context.Context, securityCode string) (string, bool, error) {
	return d.client.QueryHoldingPage(ctx, d.databaseID, securityCode)
}

func (d *HoldingsDatabase) CreateHolding(ctx context.Context, rec models.HoldingRecord) (string, error) {
	return d.client.CreateHoldingPage(ctx, d.databaseID, rec)
}

// TransactionsDatabase binds a Client to one transactions database id. It
// satisfies the processors.OrderNumberProvider and services.TransactionStore
// capabilities.
type TransactionsDatabase struct {
	client     *Client
	databaseID string
}

func NewTransactionsDatabase(client *Client, databaseID string) *TransactionsDatabase {
	return &TransactionsDatabase{client: client, databaseID: databaseID}
}

func (d *TransactionsDatabase) ExistingOrderNumbers(ctx context.Context) (map[string]struct{}, error) {
	return d.client.ListOrderNumbers(ctx, d.databaseID)
}

func (d *TransactionsDatabase) CreateTransaction(ctx context.Context, props Properties) error {
	return d.client.CreateTransactionPage(ctx, d.databaseID, props)
}
