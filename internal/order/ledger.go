package order

import (
	"errors"

	"main/internal/schema"
)

var ErrEmptyLedger = errors.New("trade ledger is empty")

// TrdRecordList is the append-only, arrival-ordered ledger of executed
// fills belonging to one child order.
type TrdRecordList struct {
	uniqueID uint64
	records  []schema.TrdRecord
}

func newTrdRecordList(uniqueID uint64) TrdRecordList {
	return TrdRecordList{uniqueID: uniqueID}
}

// Append adds one fill to the ledger and returns the stored record.
func (l *TrdRecordList) Append(price schema.Price, qty schema.Quantity, fee schema.Fee, epoch int64) schema.TrdRecord {
	record := schema.TrdRecord{
		Serial:   len(l.records),
		UniqueID: l.uniqueID,
		TrdPrice: price,
		TrdQty:   qty,
		Fee:      fee,
		Epoch:    epoch,
	}
	l.records = append(l.records, record)
	return record
}

// Len returns the number of fills in the ledger.
func (l *TrdRecordList) Len() int {
	return len(l.records)
}

// First returns the earliest fill.
func (l *TrdRecordList) First() (schema.TrdRecord, error) {
	if len(l.records) == 0 {
		return schema.TrdRecord{}, ErrEmptyLedger
	}
	return l.records[0], nil
}

// Last returns the latest fill.
func (l *TrdRecordList) Last() (schema.TrdRecord, error) {
	if len(l.records) == 0 {
		return schema.TrdRecord{}, ErrEmptyLedger
	}
	return l.records[len(l.records)-1], nil
}

// Records returns a copy of the ledger in arrival order.
func (l *TrdRecordList) Records() []schema.TrdRecord {
	out := make([]schema.TrdRecord, len(l.records))
	copy(out, l.records)
	return out
}
