package parsers

import (
	"fmt"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

// Column names as they appear in the brokerage export header.
const (
	colTradeDate          = "成交日期"
	colTradeTime          = "成交时间"
	colSecurityCode       = "证券代码"
	colSecurityName       = "证券名称"
	colDirection          = "委托方向"
	colQuantity           = "成交数量"
	colPrice              = "成交均价"
	colAmount             = "成交金额"
	colCommission         = "佣金"
	colOtherFees          = "其他费用"
	colStampTax           = "印花税"
	colTransferFee        = "过户费"
	colCashBalance        = "资金余额"
	colShareBalance       = "股份余额"
	colOrderNumber        = "委托编号"
	colFillNumber         = "成交编号"
	colMarket             = "交易市场"
	colShareholderAccount = "股东账号"
	colCurrency           = "币种"
)

// exportColumns is the canonical column order of the headerless TXT export.
var exportColumns = []string{
	colTradeDate, colTradeTime, colSecurityCode, colSecurityName, colDirection,
	colQuantity, colPrice, colAmount, colCommission, colOtherFees,
	colStampTax, colTransferFee, colCashBalance, colShareBalance, colOrderNumber,
	colFillNumber, colMarket, colShareholderAccount, colCurrency,
}

// buildRow assembles one TransactionRow from cleaned cell values. A non-nil
// RowFailure means the row must be reported as malformed and excluded from
// the import.
func buildRow(line int, get func(col string) string) (models.TransactionRow, *models.RowFailure) {
	row := models.TransactionRow{
		Line:               line,
		SecurityCode:       formatSecurityCode(get(colSecurityCode)),
		SecurityName:       get(colSecurityName),
		OrderNumber:        get(colOrderNumber),
		FillNumber:         get(colFillNumber),
		Direction:          get(colDirection),
		Market:             get(colMarket),
		ShareholderAccount: get(colShareholderAccount),
		Currency:           get(colCurrency),
		TradeTime:          get(colTradeTime),
	}

	fail := func(detail string) (models.TransactionRow, *models.RowFailure) {
		return models.TransactionRow{}, &models.RowFailure{
			Line:        line,
			OrderNumber: row.OrderNumber,
			Reason:      models.ReasonMalformedRow,
			Detail:      detail,
		}
	}

	if row.SecurityCode == "" {
		return fail(fmt.Sprintf("missing required column %s", colSecurityCode))
	}
	if row.OrderNumber == "" {
		return fail(fmt.Sprintf("missing required column %s", colOrderNumber))
	}

	numericFields := []struct {
		col string
		dst *float64
	}{
		{colQuantity, &row.Quantity},
		{colPrice, &row.Price},
		{colAmount, &row.Amount},
		{colCommission, &row.Commission},
		{colOtherFees, &row.OtherFees},
		{colStampTax, &row.StampTax},
		{colTransferFee, &row.TransferFee},
		{colCashBalance, &row.CashBalance},
		{colShareBalance, &row.ShareBalance},
	}
	for _, f := range numericFields {
		v, err := parseNumeric(get(f.col))
		if err != nil {
			return fail(fmt.Sprintf("%s: %v", f.col, err))
		}
		*f.dst = v
	}

	if raw := get(colTradeDate); raw != "" {
		date, err := parseTradeDate(raw)
		if err != nil {
			return fail(fmt.Sprintf("%s: %v", colTradeDate, err))
		}
		row.TradeDate = date
	}

	return row, nil
}
