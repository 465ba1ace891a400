package order

import (
	"time"

	"main/internal/account"
	"main/internal/schema"
)

// ExternalStrategyID is the reserved strategy id attributed to orders whose
// true origin is outside this platform. It fits in the 24 strategy bits of
// a unique id.
const ExternalStrategyID uint32 = 0xFFFFFF

// Order is the common view over parent and child orders. It is a closed
// set; variant-specific behavior is reached by a type switch on
// *ParentOrder / *ChildOrder.
type Order interface {
	UniqueID() uint64
	OwnerUniqueID() uint64
	StrategyID() uint32
	SubAccountID() uint32
	AccountID() uint32
	Instrument() schema.Instrument
	Qty() schema.OrdQty
	Price() schema.OrdPrice
	Type() schema.OrdType
	Direction() schema.TrdDirection
	Action() schema.TrdAction
	Status() schema.OrdStatus
	Timestamp() time.Time

	// OrdLevel distinguishes parent (level > 0) from child (level == 0).
	OrdLevel() int

	base() *baseOrder
}

// baseOrder carries the fields shared by parent and child orders.
type baseOrder struct {
	uniqueID      uint64
	ownerUniqueID uint64
	strategyID    uint32
	subAccountID  uint32
	accountID     uint32
	instrument    schema.Instrument
	qty           schema.OrdQty
	price         schema.OrdPrice
	ordType       schema.OrdType
	direction     schema.TrdDirection
	action        schema.TrdAction
	status        schema.OrdStatus
	timestamp     time.Time
}

func (o *baseOrder) UniqueID() uint64                { return o.uniqueID }
func (o *baseOrder) OwnerUniqueID() uint64           { return o.ownerUniqueID }
func (o *baseOrder) StrategyID() uint32              { return o.strategyID }
func (o *baseOrder) SubAccountID() uint32            { return o.subAccountID }
func (o *baseOrder) AccountID() uint32               { return o.accountID }
func (o *baseOrder) Instrument() schema.Instrument   { return o.instrument }
func (o *baseOrder) Qty() schema.OrdQty              { return o.qty }
func (o *baseOrder) Price() schema.OrdPrice          { return o.price }
func (o *baseOrder) Type() schema.OrdType            { return o.ordType }
func (o *baseOrder) Direction() schema.TrdDirection  { return o.direction }
func (o *baseOrder) Action() schema.TrdAction        { return o.action }
func (o *baseOrder) Status() schema.OrdStatus        { return o.status }
func (o *baseOrder) Timestamp() time.Time            { return o.timestamp }

func (o *baseOrder) base() *baseOrder { return o }

func (o *baseOrder) touch(epoch int64) {
	if epoch > 0 {
		o.timestamp = time.Unix(0, epoch)
		return
	}
	o.timestamp = time.Now()
}

// ParentOrder is a strategy-level order expressing trading intent. It may
// be converted to, or split into, executable child orders.
type ParentOrder struct {
	baseOrder
}

// OrdLevel reports the parent order level.
func (o *ParentOrder) OrdLevel() int { return 1 }

func newParentOrder(uniqueID uint64, strategyID, subAccountID, accountID uint32,
	instrument schema.Instrument, offerQty schema.Quantity, offerPrice schema.Price,
	ordType schema.OrdType, direction schema.TrdDirection, action schema.TrdAction) *ParentOrder {
	return &ParentOrder{baseOrder{
		uniqueID:     uniqueID,
		strategyID:   strategyID,
		subAccountID: subAccountID,
		accountID:    accountID,
		instrument:   instrument,
		qty:          schema.OrdQtyWithOffer(offerQty),
		price:        schema.OrdPriceWithOffer(offerPrice),
		ordType:      ordType,
		direction:    direction,
		action:       action,
		status:       schema.OrdStatusPendingNew,
		timestamp:    time.Now(),
	}}
}

// brokerIdentifierSlots is the number of broker-assigned identifier slots
// carried by a child order.
const brokerIdentifierSlots = 4

// ChildOrder is the minimal executable unit submitted to an exchange. It
// owns the executed-trade ledger and the broker identifier slots.
type ChildOrder struct {
	baseOrder

	brokerIdentifier [brokerIdentifierSlots]string
	records          TrdRecordList
}

// OrdLevel reports the child order level.
func (o *ChildOrder) OrdLevel() int { return 0 }

// BrokerIdentifier returns the broker-assigned identifier slots.
func (o *ChildOrder) BrokerIdentifier() [brokerIdentifierSlots]string {
	return o.brokerIdentifier
}

// AddBrokerIdentifier stores the identifier in the first free slot.
// It reports false when the identifier is already present or all slots
// are taken.
func (o *ChildOrder) AddBrokerIdentifier(identifier string) bool {
	if identifier == "" {
		return false
	}
	free := -1
	for i, slot := range o.brokerIdentifier {
		if slot == identifier {
			return false
		}
		if slot == "" && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return false
	}
	o.brokerIdentifier[free] = identifier
	return true
}

// Records returns the executed-trade ledger.
func (o *ChildOrder) Records() *TrdRecordList {
	return &o.records
}

// FirstTrdRecord returns the earliest fill of the order.
func (o *ChildOrder) FirstTrdRecord() (schema.TrdRecord, error) {
	return o.records.First()
}

// LastTrdRecord returns the latest fill of the order.
func (o *ChildOrder) LastTrdRecord() (schema.TrdRecord, error) {
	return o.records.Last()
}

func newChildOrder(uniqueID, ownerUniqueID uint64, strategyID, subAccountID, accountID uint32,
	instrument schema.Instrument, offerQty schema.Quantity, offerPrice schema.Price,
	ordType schema.OrdType, direction schema.TrdDirection, action schema.TrdAction) *ChildOrder {
	child := &ChildOrder{baseOrder: baseOrder{
		uniqueID:      uniqueID,
		ownerUniqueID: ownerUniqueID,
		strategyID:    strategyID,
		subAccountID:  subAccountID,
		accountID:     accountID,
		instrument:    instrument,
		qty:           schema.OrdQtyWithOffer(offerQty),
		price:         schema.OrdPriceWithOffer(offerPrice),
		ordType:       ordType,
		direction:     direction,
		action:        action,
		status:        schema.OrdStatusPendingNew,
		timestamp:     time.Now(),
	}}
	child.records = newTrdRecordList(uniqueID)
	return child
}

// newForeignChildOrder builds a child order for a report whose unique id
// was never created through this platform. The order is attributed to the
// external strategy and sub-account sentinels; the order type defaults to
// Limit.
func newForeignChildOrder(report schema.OrdReport, accountID uint32) *ChildOrder {
	child := newChildOrder(report.UniqueID, 0, ExternalStrategyID, account.ExternalSubAccountID,
		accountID, report.Instrument, report.OfferQty, report.OfferPrice,
		schema.OrdTypeLimit, report.Direction, report.Action)
	return child
}
