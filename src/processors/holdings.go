package processors

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/TreyDong/notion-csv-importer/src/logger"
	"github.com/TreyDong/notion-csv-importer/src/models"
)

// HoldingResolver resolves a security code to the page id of its holding
// record, creating the record on first reference. Resolution is memoized for
// the lifetime of one import run; the resolver must not be shared across runs.
//
// The entry map doubles as the single-flight guard: concurrent resolves for
// the same code serialize on the entry lock, so at most one create call is
// issued per code per run. Failures are not cached, so a later row for the
// same code retries creation.
type HoldingResolver struct {
	store HoldingStore

	mu      sync.Mutex
	entries map[string]*holdingEntry
}

type holdingEntry struct {
	mu       sync.Mutex
	resolved bool
	pageID   string
}

func NewHoldingResolver(store HoldingStore) *HoldingResolver {
	return &HoldingResolver{
		store:   store,
		entries: make(map[string]*holdingEntry),
	}
}

// Resolve returns the holding page id for the row's security code.
func (r *HoldingResolver) Resolve(ctx context.Context, row models.TransactionRow) (string, error) {
	r.mu.Lock()
	entry, ok := r.entries[row.SecurityCode]
	if !ok {
		entry = &holdingEntry{}
		r.entries[row.SecurityCode] = entry
	}
	r.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.resolved {
		return entry.pageID, nil
	}

	pageID, found, err := r.store.QueryHoldingByCode(ctx, row.SecurityCode)
	if err != nil {
		return "", fmt.Errorf("holding lookup for %s: %w", row.SecurityCode, err)
	}
	if !found {
		pageID, err = r.store.CreateHolding(ctx, NewHoldingRecord(row))
		if err != nil {
			return "", fmt.Errorf("holding creation for %s: %w", row.SecurityCode, err)
		}
		logger.L.Info("Created holding for new security", "code", row.SecurityCode, "name", row.SecurityName)
	}

	entry.resolved = true
	entry.pageID = pageID
	return pageID, nil
}

// NewHoldingRecord builds the holding created on first reference to a
// security code. Quantity and cost price start at zero; the pipeline never
// updates a holding after creation.
func NewHoldingRecord(row models.TransactionRow) models.HoldingRecord {
	name := strings.TrimSpace(row.SecurityName)
	if name == "" {
		name = row.SecurityCode
	}
	return models.HoldingRecord{
		SecurityCode: row.SecurityCode,
		SecurityName: name,
		Title:        fmt.Sprintf("%s(%s)", name, row.SecurityCode),
		Market:       marketName(row.Market),
		SecurityType: securityType(row.SecurityCode),
		ExchangeCode: exchangeCode(row.SecurityCode),
		OpenDate:     time.Now(),
	}
}

func marketName(market string) string {
	switch {
	case strings.Contains(market, "沪"):
		return "沪市A股"
	case strings.Contains(market, "深"):
		return "深市A股"
	default:
		return market
	}
}

func securityType(code string) string {
	switch {
	case strings.HasPrefix(code, "688"), strings.HasPrefix(code, "5"):
		return "科创板"
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return "A股"
	case strings.HasPrefix(code, "8"), strings.HasPrefix(code, "4"):
		return "新三板"
	default:
		return "其他"
	}
}

func exchangeCode(code string) string {
	switch {
	case strings.HasPrefix(code, "6"):
		return "SH"
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "2"), strings.HasPrefix(code, "3"):
		return "SZ"
	default:
		return "OTHER"
	}
}
