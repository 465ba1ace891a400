package order

import (
	"errors"

	"main/internal/schema"
)

var ErrInvalidSplitCount = errors.New("split count must be > 0")

// ChildSpec is one child allocation produced by a Splitter.
type ChildSpec struct {
	OfferQty   schema.Quantity
	OfferPrice schema.Price
}

// Splitter decides how a parent order's quantity is allocated across child
// orders. It is a pure function: the registry owns id allocation and
// registration of the resulting children.
type Splitter func(parent *ParentOrder, count int) ([]ChildSpec, error)

// EvenSplit divides the parent's offer quantity evenly, giving the
// remainder to the first child. All children inherit the parent's price.
func EvenSplit(parent *ParentOrder, count int) ([]ChildSpec, error) {
	if count <= 0 {
		return nil, ErrInvalidSplitCount
	}
	offer := parent.Qty().Offer
	each := offer / schema.Quantity(count)
	remainder := offer - each*schema.Quantity(count)

	specs := make([]ChildSpec, count)
	for i := range specs {
		specs[i] = ChildSpec{OfferQty: each, OfferPrice: parent.Price().Offer}
	}
	specs[0].OfferQty += remainder
	return specs, nil
}
