package state

import "main/internal/schema"

// PositionReducer tracks net positions per instrument from fill events.
// Long fills increase the net quantity, short fills decrease it. Not safe
// for concurrent use; callers serialize through the report pipeline.
type PositionReducer struct {
	positions map[uint32]schema.Quantity
}

// NewPositionReducer creates an empty reducer.
func NewPositionReducer() *PositionReducer {
	return &PositionReducer{positions: make(map[uint32]schema.Quantity)}
}

// ApplyFill updates the position and returns the new net quantity.
func (r *PositionReducer) ApplyFill(instrumentID uint32, direction schema.TrdDirection, qty schema.Quantity) schema.Quantity {
	current := r.positions[instrumentID]
	var next schema.Quantity
	switch direction {
	case schema.TrdDirectionLong:
		next = current + qty
	case schema.TrdDirectionShort:
		next = current - qty
	default:
		next = current
	}
	r.positions[instrumentID] = next
	return next
}

// ApplySnapshot replaces positions with a snapshot.
func (r *PositionReducer) ApplySnapshot(snapshot Snapshot) {
	if r.positions == nil {
		r.positions = make(map[uint32]schema.Quantity, len(snapshot.Positions))
	} else {
		for key := range r.positions {
			delete(r.positions, key)
		}
	}
	for _, entry := range snapshot.Positions {
		r.positions[entry.InstrumentID] = entry.Qty
	}
}

// Position returns the current net quantity for an instrument.
func (r *PositionReducer) Position(instrumentID uint32) schema.Quantity {
	return r.positions[instrumentID]
}

// Count returns the number of tracked instruments.
func (r *PositionReducer) Count() int {
	return len(r.positions)
}
