package schema

// Price is a scaled integer. The scale is defined by the instrument.
type Price int64

// Quantity is a scaled integer. The scale is defined by the instrument.
type Quantity int64

// Fee is a scaled integer. The scale is defined by the instrument.
type Fee int64

// OrdQty tracks the requested and executed quantities of an order.
type OrdQty struct {
	Offer      Quantity
	Filled     Quantity
	LastFilled Quantity
	Leaves     Quantity
}

// OrdQtyWithOffer builds an OrdQty for a fresh order.
func OrdQtyWithOffer(offer Quantity) OrdQty {
	return OrdQty{Offer: offer, Leaves: offer}
}

// OrdPrice tracks the requested and executed prices of an order.
type OrdPrice struct {
	Offer     Price
	LastTrade Price
}

// OrdPriceWithOffer builds an OrdPrice for a fresh order.
func OrdPriceWithOffer(offer Price) OrdPrice {
	return OrdPrice{Offer: offer}
}

// OrdReport is a single execution/status report received from an exchange
// or broker for a specific order.
type OrdReport struct {
	UniqueID    uint64       `json:"uniqueId"`
	InvestorID  string       `json:"investorId"`
	Instrument  Instrument   `json:"instrument"`
	OfferQty    Quantity     `json:"offerQty"`
	OfferPrice  Price        `json:"offerPrice"`
	Direction   TrdDirection `json:"direction"`
	Action      TrdAction    `json:"action"`
	Status      OrdStatus    `json:"status"`
	FilledQty   Quantity     `json:"filledQty"`
	LastQty     Quantity     `json:"lastQty"`
	LastPrice   Price        `json:"lastPrice"`
	Fee         Fee          `json:"fee"`
	BrokerOrdID string       `json:"brokerOrdId"`
	Epoch       int64        `json:"epoch"`
}

// TrdRecord is one executed fill appended to a child order's ledger.
type TrdRecord struct {
	Serial   int
	UniqueID uint64
	TrdPrice Price
	TrdQty   Quantity
	Fee      Fee
	Epoch    int64
}

// BasicMarketData is an opaque market data event. The book-keeping core
// only forwards it to the market-data extension point.
type BasicMarketData struct {
	InstrumentID uint32   `json:"instrumentId"`
	LastPrice    Price    `json:"lastPrice"`
	LastQty      Quantity `json:"lastQty"`
	Epoch        int64    `json:"epoch"`
}
