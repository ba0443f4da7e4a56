package processors

import (
	"fmt"
	"time"

	"github.com/TreyDong/notion-csv-importer/src/models"
	"github.com/TreyDong/notion-csv-importer/src/notion"
)

// RelationLinker maps a normalized row and its resolved holding page into the
// property payload of the transaction page. Pure transformation, no I/O, so
// the column-to-property mapping can be tested without a live API.
type RelationLinker struct {
	now func() time.Time
}

func NewRelationLinker() *RelationLinker {
	return &RelationLinker{now: time.Now}
}

// Link builds the transaction page payload, including the relation property
// pointing at the holding page and an import remark.
func (l *RelationLinker) Link(row models.TransactionRow, holdingPageID string) notion.Properties {
	props := notion.Properties{
		notion.PropSecurityCode: notion.TitleProperty(row.SecurityCode),
		notion.PropOrderNumber:  notion.RichTextProperty(row.OrderNumber),
		notion.PropQuantity:     notion.NumberProperty(row.Quantity),
		notion.PropPrice:        notion.NumberProperty(row.Price),
		notion.PropAmount:       notion.NumberProperty(row.Amount),
		notion.PropCommission:   notion.NumberProperty(row.Commission),
		notion.PropOtherFees:    notion.NumberProperty(row.OtherFees),
		notion.PropStampTax:     notion.NumberProperty(row.StampTax),
		notion.PropTransferFee:  notion.NumberProperty(row.TransferFee),
		notion.PropCashBalance:  notion.NumberProperty(row.CashBalance),
		notion.PropShareBalance: notion.NumberProperty(row.ShareBalance),
		notion.PropRemark:       notion.RichTextProperty("外部导入 - " + l.now().Format("2006-01-02 15:04:05")),
	}

	setIfPresent := func(prop, value string, build func(string) any) {
		if value != "" {
			props[prop] = build(value)
		}
	}
	setIfPresent(notion.PropSecurityName, row.SecurityName, notion.RichTextProperty)
	setIfPresent(notion.PropDirection, row.Direction, notion.SelectProperty)
	setIfPresent(notion.PropFillNumber, row.FillNumber, notion.RichTextProperty)
	setIfPresent(notion.PropMarket, row.Market, notion.SelectProperty)
	setIfPresent(notion.PropShareholderAccount, row.ShareholderAccount, notion.RichTextProperty)
	setIfPresent(notion.PropCurrency, row.Currency, notion.SelectProperty)

	if !row.TradeDate.IsZero() {
		props[notion.PropTradeDate] = notion.DateProperty(mergeTradeTime(row.TradeDate, row.TradeTime), row.TradeTime != "")
	}

	if holdingPageID != "" {
		props[notion.PropHoldingRelation] = notion.RelationProperty(holdingPageID)
	}

	return props
}

// mergeTradeTime folds the export's separate time column into the trade date.
func mergeTradeTime(date time.Time, tradeTime string) time.Time {
	if tradeTime == "" {
		return date
	}
	for _, layout := range []string{"15:04:05", "15:04", "150405"} {
		if t, err := time.Parse(layout, tradeTime); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, date.Location())
		}
	}
	return date
}

// RowKey identifies a row in failure reports: order number when present,
// otherwise the line number.
func RowKey(row models.TransactionRow) string {
	if row.OrderNumber != "" {
		return row.OrderNumber
	}
	return fmt.Sprintf("line %d", row.Line)
}
