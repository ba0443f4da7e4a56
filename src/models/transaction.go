package models

import "time"

// TransactionRow is the normalized representation of one line of a brokerage
// export. Parsers populate every field they can from the source file; the row
// is treated as immutable afterwards.
type TransactionRow struct {
	Line int `json:"line"` // 1-based line number in the source file

	SecurityCode string `json:"security_code"`
	SecurityName string `json:"security_name"`
	OrderNumber  string `json:"order_number"` // 委托编号, the dedup key
	FillNumber   string `json:"fill_number"`  // 成交编号
	Direction    string `json:"direction"`    // 委托方向, e.g. "买入", "卖出"

	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Amount      float64 `json:"amount"`
	Commission  float64 `json:"commission"`
	OtherFees   float64 `json:"other_fees"`
	StampTax    float64 `json:"stamp_tax"`
	TransferFee float64 `json:"transfer_fee"`

	CashBalance  float64 `json:"cash_balance"`
	ShareBalance float64 `json:"share_balance"`

	Market             string `json:"market"` // 交易市场
	ShareholderAccount string `json:"shareholder_account"`
	Currency           string `json:"currency"`

	TradeDate time.Time `json:"trade_date"`
	TradeTime string    `json:"trade_time"` // kept as text, merged with TradeDate by the linker
}

// HoldingRecord describes the holding page created in the Notion holdings
// database the first time a security code is seen.
type HoldingRecord struct {
	SecurityCode string    `json:"security_code"`
	SecurityName string    `json:"security_name"`
	Title        string    `json:"title"` // "name(code)"
	Market       string    `json:"market"`
	SecurityType string    `json:"security_type"`
	ExchangeCode string    `json:"exchange_code"`
	OpenDate     time.Time `json:"open_date"`
	Quantity     float64   `json:"quantity"`
	CostPrice    float64   `json:"cost_price"`
}
