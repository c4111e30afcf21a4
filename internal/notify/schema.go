// Package notify translates internal matching-engine and ledger events
// into the venue's public wire message schema, where every decimal field
// (price, quantity, balance, fee) is encoded as a string rather than a
// native number so clients never lose precision to JSON's float64
// decoding; timestamps and trade ids are integers.
package notify

// OrderTradeUpdate reports an order's lifecycle transition (new, trade,
// canceled, expired, rejected).
type OrderTradeUpdate struct {
	EventType        string `json:"e"`
	EventTime        int64  `json:"E"`
	Symbol           string `json:"s"`
	ClientOrderID    string `json:"c"`
	OrderID          string `json:"i"`
	Side             string `json:"S"`
	OrderType        string `json:"o"`
	TimeInForce      string `json:"f"`
	OriginalQuantity string `json:"q"`
	OriginalPrice    string `json:"p"`
	ExecutionType    string `json:"x"`
	OrderStatus      string `json:"X"`
	LastFilledQty    string `json:"l"`
	LastFilledPrice  string `json:"L"`
	FilledQuantity   string `json:"z"`
	TradeID          int64  `json:"t,omitempty"`
	CommissionAmount string `json:"n,omitempty"`
	CommissionAsset  string `json:"N,omitempty"`
	IsMaker          bool   `json:"m"`
	RejectReason     string `json:"r,omitempty"`
}

// TradeEvent reports one public trade print.
type TradeEvent struct {
	EventType     string `json:"e"`
	EventTime     int64  `json:"E"`
	Symbol        string `json:"s"`
	TradeID       int64  `json:"t"`
	Price         string `json:"p"`
	Quantity      string `json:"q"`
	BuyerOrderID  string `json:"b"`
	SellerOrderID string `json:"a"`
	TradeTime     int64  `json:"T"`
	IsBuyerMaker  bool   `json:"m"`
}

// DepthLevelWire is one [price, quantity] row in a depth update.
type DepthLevelWire [2]string

// DepthUpdate reports an incremental order-book depth change.
type DepthUpdate struct {
	EventType string           `json:"e"`
	EventTime int64            `json:"E"`
	Symbol    string           `json:"s"`
	Bids      []DepthLevelWire `json:"b"`
	Asks      []DepthLevelWire `json:"a"`
}

// BalanceWire is one asset's free/locked pair in an account position push.
type BalanceWire struct {
	Asset  string `json:"a"`
	Free   string `json:"f"`
	Locked string `json:"l"`
}

// OutboundAccountPosition reports a balance change for a user after a
// trade, deposit, or withdrawal.
type OutboundAccountPosition struct {
	EventType string        `json:"e"`
	EventTime int64         `json:"E"`
	UserID    string        `json:"u"`
	Balances  []BalanceWire `json:"B"`
}
