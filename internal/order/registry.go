package order

import (
	"sync"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/account"
	"main/internal/schema"
)

var (
	ErrNotChildOrder   = errors.New("order is not a child order")
	ErrAccountMismatch = errors.New("order account does not match sub-account owner")
)

// reportShards is the number of per-uniqueId locks serializing report
// application. Reports for distinct ids proceed concurrently.
const reportShards = 64

// RegistryConfig controls registry sizing and the split protocol.
type RegistryConfig struct {
	GlobalCapacity    int
	DimensionCapacity int
	Splitter          Splitter
}

// Registry owns the global order index plus the four dimension-partitioned
// index families, keeps them mutually consistent, and applies execution
// reports to advance order state. Orders are never destroyed: terminal
// orders remain queryable in the finished bins.
type Registry struct {
	accounts *account.Registry
	alloc    *UniqueIDAllocator
	cfg      RegistryConfig

	global *Index

	mu           sync.Mutex
	bySubAccount map[uint32]*Index
	byAccount    map[uint32]*Index
	byStrategy   map[uint32]*Index
	byInstrument map[uint32]*Index

	reportLocks [reportShards]sync.Mutex
}

// NewRegistry creates an empty order registry backed by the account registry.
func NewRegistry(accounts *account.Registry, cfg RegistryConfig) *Registry {
	if cfg.GlobalCapacity <= 0 {
		cfg.GlobalCapacity = GlobalIndexCapacity
	}
	if cfg.DimensionCapacity <= 0 {
		cfg.DimensionCapacity = DimensionIndexCapacity
	}
	if cfg.Splitter == nil {
		cfg.Splitter = EvenSplit
	}
	return &Registry{
		accounts:     accounts,
		alloc:        NewUniqueIDAllocator(),
		cfg:          cfg,
		global:       NewIndex(cfg.GlobalCapacity),
		bySubAccount: make(map[uint32]*Index),
		byAccount:    make(map[uint32]*Index),
		byStrategy:   make(map[uint32]*Index),
		byInstrument: make(map[uint32]*Index),
	}
}

// PutOrder registers the order in the global index and in its sub-account,
// account, strategy and instrument indices. The owning account is resolved
// through the account registry, except for foreign orders whose account was
// already resolved from the report's investor id.
func (r *Registry) PutOrder(o Order) error {
	if o.SubAccountID() != account.ExternalSubAccountID {
		acct, err := r.accounts.AccountBySubAccountID(o.SubAccountID())
		if err != nil {
			return errors.Wrapf(err, "resolve account for subAccountId %d", o.SubAccountID())
		}
		if acct.AccountID() != o.AccountID() {
			return errors.Wrapf(ErrAccountMismatch, "order %d, accountId %d, subAccountId %d",
				o.UniqueID(), o.AccountID(), o.SubAccountID())
		}
	}

	if err := r.global.PutOrder(o); err != nil {
		return errors.Wrapf(err, "put order %d", o.UniqueID())
	}
	// The global index refused finished ids above, so the dimension puts
	// cannot fail on a consistent registry.
	_ = r.SubAccountOrderIndex(o.SubAccountID()).PutOrder(o)
	_ = r.AccountOrderIndex(o.AccountID()).PutOrder(o)
	_ = r.StrategyOrderIndex(o.StrategyID()).PutOrder(o)
	_ = r.InstrumentOrderIndex(o.Instrument().ID).PutOrder(o)
	return nil
}

// updateOrder propagates a terminal status across all five indices. Any
// non-terminal status is a no-op.
func (r *Registry) updateOrder(o Order) {
	if !o.Status().IsTerminal() {
		logs.Infof("no bin move needed, uniqueId: %d, status: %s", o.UniqueID(), o.Status())
		return
	}
	r.global.FinishOrder(o)
	r.SubAccountOrderIndex(o.SubAccountID()).FinishOrder(o)
	r.AccountOrderIndex(o.AccountID()).FinishOrder(o)
	r.StrategyOrderIndex(o.StrategyID()).FinishOrder(o)
	r.InstrumentOrderIndex(o.Instrument().ID).FinishOrder(o)
}

// OnOrdReport resolves or synthesizes the order owning the report, applies
// the report, and propagates any terminal transition. Reports for orders
// never created through this registry are attributed to the account mapped
// by the report's investor id; an unresolvable investor id is a hard
// failure, never a silent drop.
//
// Calls are serialized per unique id, so a repeated report for the same
// unknown id cannot synthesize two orders.
func (r *Registry) OnOrdReport(report schema.OrdReport) (*ChildOrder, error) {
	lock := &r.reportLocks[report.UniqueID%reportShards]
	lock.Lock()
	defer lock.Unlock()

	// A malformed report must leave no trace, so it is rejected before
	// any synthesis or registration.
	if report.LastQty < 0 {
		return nil, errors.Wrapf(ErrInvalidFill, "report %d", report.UniqueID)
	}

	o, ok := r.global.GetOrder(report.UniqueID)
	if !ok {
		logs.Warnf("received other source order, uniqueId: %d", report.UniqueID)
		acct, err := r.accounts.AccountByInvestorID(report.InvestorID)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute foreign report %d", report.UniqueID)
		}
		foreign := newForeignChildOrder(report, acct.AccountID())
		if err := r.PutOrder(foreign); err != nil {
			return nil, err
		}
		o = foreign
	}

	child, ok := o.(*ChildOrder)
	if !ok {
		return nil, errors.Wrapf(ErrNotChildOrder, "uniqueId %d", report.UniqueID)
	}
	if err := applyReport(child, report); err != nil {
		return nil, errors.Wrapf(err, "apply report %d", report.UniqueID)
	}
	r.updateOrder(child)
	return child, nil
}

// CreateParentOrder allocates a parent order with a fresh unique id and
// registers it.
func (r *Registry) CreateParentOrder(strategyID, subAccountID, accountID uint32,
	instrument schema.Instrument, offerQty schema.Quantity, offerPrice schema.Price,
	ordType schema.OrdType, direction schema.TrdDirection, action schema.TrdAction) (*ParentOrder, error) {
	parent := newParentOrder(r.alloc.Allocate(strategyID), strategyID, subAccountID, accountID,
		instrument, offerQty, offerPrice, ordType, direction, action)
	if err := r.PutOrder(parent); err != nil {
		return nil, err
	}
	return parent, nil
}

// ToChildOrder converts the parent directly into a single child order and
// registers it. The parent stays queryable as the ancestor record.
func (r *Registry) ToChildOrder(parent *ParentOrder) (*ChildOrder, error) {
	child := newChildOrder(r.alloc.Allocate(parent.StrategyID()), parent.UniqueID(),
		parent.StrategyID(), parent.SubAccountID(), parent.AccountID(), parent.Instrument(),
		parent.Qty().Offer, parent.Price().Offer, parent.Type(), parent.Direction(), parent.Action())
	if err := r.PutOrder(child); err != nil {
		return nil, err
	}
	return child, nil
}

// SplitChildOrder splits the parent into count child orders using the
// configured splitter and registers every child. Each child carries a
// fresh unique id and points back to the parent.
func (r *Registry) SplitChildOrder(parent *ParentOrder, count int) ([]*ChildOrder, error) {
	specs, err := r.cfg.Splitter(parent, count)
	if err != nil {
		return nil, errors.Wrapf(err, "split order %d", parent.UniqueID())
	}
	children := make([]*ChildOrder, 0, len(specs))
	for _, spec := range specs {
		child := newChildOrder(r.alloc.Allocate(parent.StrategyID()), parent.UniqueID(),
			parent.StrategyID(), parent.SubAccountID(), parent.AccountID(), parent.Instrument(),
			spec.OfferQty, spec.OfferPrice, parent.Type(), parent.Direction(), parent.Action())
		if err := r.PutOrder(child); err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// GetOrder looks the order up in the global index.
func (r *Registry) GetOrder(uniqueID uint64) (Order, bool) {
	return r.global.GetOrder(uniqueID)
}

// ContainsOrder reports whether the global index holds the id.
func (r *Registry) ContainsOrder(uniqueID uint64) bool {
	return r.global.ContainsOrder(uniqueID)
}

// SubAccountOrderIndex returns the index for the sub-account, creating it
// on first use.
func (r *Registry) SubAccountOrderIndex(subAccountID uint32) *Index {
	return r.dimensionIndex(r.bySubAccount, subAccountID)
}

// AccountOrderIndex returns the index for the account, creating it on
// first use.
func (r *Registry) AccountOrderIndex(accountID uint32) *Index {
	return r.dimensionIndex(r.byAccount, accountID)
}

// StrategyOrderIndex returns the index for the strategy, creating it on
// first use.
func (r *Registry) StrategyOrderIndex(strategyID uint32) *Index {
	return r.dimensionIndex(r.byStrategy, strategyID)
}

// InstrumentOrderIndex returns the index for the instrument, creating it
// on first use.
func (r *Registry) InstrumentOrderIndex(instrumentID uint32) *Index {
	return r.dimensionIndex(r.byInstrument, instrumentID)
}

// dimensionIndex is the single guarded insertion path for lazy index
// creation: two callers racing on the same fresh key always observe the
// same index.
func (r *Registry) dimensionIndex(family map[uint32]*Index, key uint32) *Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := family[key]
	if !ok {
		idx = NewIndex(r.cfg.DimensionCapacity)
		family[key] = idx
	}
	return idx
}

// OnMarketData is the reserved market-data extension point.
func (r *Registry) OnMarketData(md schema.BasicMarketData) {
	_ = md
}
