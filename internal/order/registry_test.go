package order

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/account"
	"main/internal/schema"
)

var testInstrument = schema.Instrument{ID: 1, Code: "rb2510"}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	accounts := account.NewRegistry()
	acct := account.NewAccount(10, "INV1")
	require.NoError(t, accounts.Initialize(
		account.NewSubAccount(100, acct),
		account.NewSubAccount(200, account.NewAccount(20, "INV2")),
	))
	return NewRegistry(accounts, RegistryConfig{})
}

func createTestParent(t *testing.T, r *Registry) *ParentOrder {
	t.Helper()
	parent, err := r.CreateParentOrder(5, 100, 10, testInstrument,
		10, 432150, schema.OrdTypeLimit, schema.TrdDirectionLong, schema.TrdActionOpen)
	require.NoError(t, err)
	return parent
}

func assertFiveWayActive(t *testing.T, r *Registry, o Order) {
	t.Helper()
	for desc, idx := range map[string]*Index{
		"global":      nil,
		"sub-account": r.SubAccountOrderIndex(o.SubAccountID()),
		"account":     r.AccountOrderIndex(o.AccountID()),
		"strategy":    r.StrategyOrderIndex(o.StrategyID()),
		"instrument":  r.InstrumentOrderIndex(o.Instrument().ID),
	} {
		if idx == nil {
			got, ok := r.GetOrder(o.UniqueID())
			require.Truef(t, ok, "%s index missing order %d", desc, o.UniqueID())
			assert.Equal(t, o.UniqueID(), got.UniqueID())
			continue
		}
		require.Truef(t, idx.IsActive(o.UniqueID()), "%s index missing active order %d", desc, o.UniqueID())
	}
}

func assertFiveWayFinished(t *testing.T, r *Registry, o Order) {
	t.Helper()
	require.True(t, r.ContainsOrder(o.UniqueID()))
	for desc, idx := range map[string]*Index{
		"sub-account": r.SubAccountOrderIndex(o.SubAccountID()),
		"account":     r.AccountOrderIndex(o.AccountID()),
		"strategy":    r.StrategyOrderIndex(o.StrategyID()),
		"instrument":  r.InstrumentOrderIndex(o.Instrument().ID),
	} {
		assert.Falsef(t, idx.IsActive(o.UniqueID()), "%s index still active for %d", desc, o.UniqueID())
		assert.Truef(t, idx.IsFinished(o.UniqueID()), "%s index not finished for %d", desc, o.UniqueID())
	}
}

func TestCreateParentOrderFiveWayConsistency(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)

	assert.Equal(t, 1, parent.OrdLevel())
	assert.Equal(t, uint64(0), parent.OwnerUniqueID())
	assertFiveWayActive(t, r, parent)
}

func TestPutOrderRejectsUnknownSubAccount(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.CreateParentOrder(5, 999, 10, testInstrument,
		10, 432150, schema.OrdTypeLimit, schema.TrdDirectionLong, schema.TrdActionOpen)
	require.ErrorIs(t, err, account.ErrAccountNotFound)
	assert.Equal(t, 0, r.SubAccountOrderIndex(999).ActiveCount())
}

func TestPutOrderRejectsAccountMismatch(t *testing.T) {
	r := newTestRegistry(t)
	// Sub-account 100 belongs to account 10, not 20.
	_, err := r.CreateParentOrder(5, 100, 20, testInstrument,
		10, 432150, schema.OrdTypeLimit, schema.TrdDirectionLong, schema.TrdActionOpen)
	require.ErrorIs(t, err, ErrAccountMismatch)
}

func TestToChildOrder(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)

	child, err := r.ToChildOrder(parent)
	require.NoError(t, err)
	assert.Equal(t, 0, child.OrdLevel())
	assert.Equal(t, parent.UniqueID(), child.OwnerUniqueID())
	assert.NotEqual(t, parent.UniqueID(), child.UniqueID())
	assert.Equal(t, parent.Qty().Offer, child.Qty().Offer)

	// The parent stays queryable as the ancestor record.
	assertFiveWayActive(t, r, parent)
	assertFiveWayActive(t, r, child)
}

func TestSplitChildOrderLinkage(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)

	children, err := r.SplitChildOrder(parent, 3)
	require.NoError(t, err)
	require.Len(t, children, 3)

	seen := make(map[uint64]struct{})
	var total schema.Quantity
	for _, child := range children {
		assert.Equal(t, parent.UniqueID(), child.OwnerUniqueID())
		_, dup := seen[child.UniqueID()]
		assert.False(t, dup, "duplicate child unique id")
		seen[child.UniqueID()] = struct{}{}

		got, ok := r.GetOrder(child.UniqueID())
		require.True(t, ok)
		assert.Same(t, child, got.(*ChildOrder))
		assertFiveWayActive(t, r, child)
		total += child.Qty().Offer
	}
	assert.Equal(t, parent.Qty().Offer, total)
}

func TestSplitChildOrderInvalidCount(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)

	_, err := r.SplitChildOrder(parent, 0)
	require.ErrorIs(t, err, ErrInvalidSplitCount)
}

func TestOnOrdReportFillsAndFinishes(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)
	child, err := r.ToChildOrder(parent)
	require.NoError(t, err)

	// Partial fill keeps the order in the active bins.
	updated, err := r.OnOrdReport(schema.OrdReport{
		UniqueID:  child.UniqueID(),
		LastQty:   4,
		LastPrice: 432100,
	})
	require.NoError(t, err)
	assert.Equal(t, schema.OrdStatusPartiallyFilled, updated.Status())
	assertFiveWayActive(t, r, child)

	// The final fill moves it to every finished bin.
	updated, err = r.OnOrdReport(schema.OrdReport{
		UniqueID:  child.UniqueID(),
		LastQty:   6,
		LastPrice: 432200,
	})
	require.NoError(t, err)
	assert.Same(t, child, updated)
	assert.Equal(t, schema.OrdStatusFilled, updated.Status())
	assertFiveWayFinished(t, r, child)

	last, err := updated.LastTrdRecord()
	require.NoError(t, err)
	assert.Equal(t, schema.Quantity(6), last.TrdQty)
	assert.Equal(t, schema.Price(432200), last.TrdPrice)
}

func TestOnOrdReportRejectsParent(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)

	_, err := r.OnOrdReport(schema.OrdReport{UniqueID: parent.UniqueID(), LastQty: 1})
	require.ErrorIs(t, err, ErrNotChildOrder)
}

func TestOnOrdReportSynthesizesForeignOrder(t *testing.T) {
	r := newTestRegistry(t)

	const foreignID = uint64(987654321)
	child, err := r.OnOrdReport(schema.OrdReport{
		UniqueID:   foreignID,
		InvestorID: "INV1",
		Instrument: testInstrument,
		OfferQty:   8,
		OfferPrice: 432000,
		Direction:  schema.TrdDirectionShort,
		Action:     schema.TrdActionClose,
		LastQty:    3,
		LastPrice:  432000,
	})
	require.NoError(t, err)
	assert.Equal(t, foreignID, child.UniqueID())
	assert.Equal(t, uint32(10), child.AccountID())
	assert.Equal(t, ExternalStrategyID, child.StrategyID())
	assert.Equal(t, account.ExternalSubAccountID, child.SubAccountID())
	assert.Equal(t, schema.OrdTypeLimit, child.Type())
	assert.Equal(t, schema.OrdStatusPartiallyFilled, child.Status())

	// The second report reuses the synthesized order.
	again, err := r.OnOrdReport(schema.OrdReport{
		UniqueID:  foreignID,
		LastQty:   5,
		LastPrice: 432050,
	})
	require.NoError(t, err)
	assert.Same(t, child, again)
	assert.Equal(t, schema.OrdStatusFilled, again.Status())
	assert.Equal(t, 2, again.Records().Len())
	assertFiveWayFinished(t, r, child)
}

func TestOnOrdReportMalformedLeavesNoTrace(t *testing.T) {
	r := newTestRegistry(t)

	// A negative fill on an unknown id must not synthesize an order.
	_, err := r.OnOrdReport(schema.OrdReport{
		UniqueID:   777,
		InvestorID: "INV1",
		Instrument: testInstrument,
		LastQty:    -1,
	})
	require.ErrorIs(t, err, ErrInvalidFill)
	assert.False(t, r.ContainsOrder(777))
	assert.False(t, r.AccountOrderIndex(10).ContainsOrder(777))
	assert.False(t, r.SubAccountOrderIndex(account.ExternalSubAccountID).ContainsOrder(777))

	// A valid report for the same id still synthesizes cleanly afterwards.
	child, err := r.OnOrdReport(schema.OrdReport{
		UniqueID:   777,
		InvestorID: "INV1",
		Instrument: testInstrument,
		OfferQty:   5,
		LastQty:    2,
		LastPrice:  432000,
	})
	require.NoError(t, err)
	assert.Equal(t, schema.OrdStatusPartiallyFilled, child.Status())
}

func TestOnOrdReportUnresolvableInvestor(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.OnOrdReport(schema.OrdReport{
		UniqueID:   424242,
		InvestorID: "NOBODY",
		LastQty:    1,
	})
	require.ErrorIs(t, err, account.ErrAccountNotFound)
	assert.False(t, r.ContainsOrder(424242))
}

func TestOnOrdReportConcurrentDistinctIDs(t *testing.T) {
	const workers = 16

	r := newTestRegistry(t)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.OnOrdReport(schema.OrdReport{
				UniqueID:   uint64(1_000_000 + i),
				InvestorID: "INV2",
				Instrument: testInstrument,
				OfferQty:   5,
				OfferPrice: 432000,
				LastQty:    5,
				LastPrice:  432000,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoErrorf(t, err, "worker %d", i)
		o, ok := r.GetOrder(uint64(1_000_000 + i))
		require.True(t, ok)
		assert.Equal(t, schema.OrdStatusFilled, o.Status())
	}
}

func TestTerminalMonotonicity(t *testing.T) {
	r := newTestRegistry(t)
	parent := createTestParent(t, r)
	child, err := r.ToChildOrder(parent)
	require.NoError(t, err)

	_, err = r.OnOrdReport(schema.OrdReport{UniqueID: child.UniqueID(), Status: schema.OrdStatusCanceled})
	require.NoError(t, err)
	assertFiveWayFinished(t, r, child)

	// A late report cannot bring the order back to an active bin.
	_, err = r.OnOrdReport(schema.OrdReport{UniqueID: child.UniqueID(), LastQty: 1})
	require.ErrorIs(t, err, ErrTerminalOrder)
	assertFiveWayFinished(t, r, child)

	err = r.PutOrder(child)
	require.ErrorIs(t, err, ErrFinishedOrder)
	assertFiveWayFinished(t, r, child)
}

func TestDimensionIndexStable(t *testing.T) {
	r := newTestRegistry(t)

	idx := r.StrategyOrderIndex(42)
	require.NotNil(t, idx)
	assert.Same(t, idx, r.StrategyOrderIndex(42))

	var wg sync.WaitGroup
	indices := make([]*Index, 8)
	for i := range indices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			indices[i] = r.InstrumentOrderIndex(77)
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(indices); i++ {
		assert.Same(t, indices[0], indices[i], fmt.Sprintf("index %d diverged", i))
	}
}
