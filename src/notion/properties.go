package notion

// Property names of the transactions database.
const (
	PropSecurityCode       = "证券代码"
	PropSecurityName       = "证券名称"
	PropDirection          = "委托方向"
	PropQuantity           = "成交数量"
	PropPrice              = "成交均价"
	PropAmount             = "成交金额"
	PropCommission         = "佣金"
	PropOtherFees          = "其他费用"
	PropStampTax           = "印花税"
	PropTransferFee        = "过户费"
	PropCashBalance        = "资金余额"
	PropShareBalance       = "股份余额"
	PropOrderNumber        = "委托编号"
	PropFillNumber         = "成交编号"
	PropMarket             = "交易市场"
	PropShareholderAccount = "股东账号"
	PropCurrency           = "币种"
	PropTradeDate          = "交易日期"
	PropHoldingRelation    = "股票持仓"
	PropRemark             = "备注"
)

// Property names of the holdings database.
const (
	HoldingPropTitle        = "股票"
	HoldingPropCode         = "证券代码"
	HoldingPropMarket       = "市场"
	HoldingPropSecurityType = "证券类型"
	HoldingPropExchangeCode = "交易所代码"
	HoldingPropOpenDate     = "建仓日期"
	HoldingPropQuantity     = "持仓数量"
	HoldingPropCostPrice    = "成本价"
)
