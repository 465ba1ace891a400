package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"main/internal/schema"
)

// Snapshot captures net positions at a point in time.
type Snapshot struct {
	Timestamp int64           `json:"timestamp"`
	LastSeq   uint64          `json:"lastSeq"`
	LastEpoch int64           `json:"lastEpoch"`
	Positions []PositionEntry `json:"positions"`
}

// PositionEntry is a single instrument position entry.
type PositionEntry struct {
	InstrumentID uint32          `json:"instrumentId"`
	Qty          schema.Quantity `json:"qty"`
}

// Snapshot builds a snapshot from current positions.
func (r *PositionReducer) Snapshot() Snapshot {
	return r.SnapshotWithMeta(0, 0)
}

// SnapshotWithMeta builds a snapshot with journal metadata.
func (r *PositionReducer) SnapshotWithMeta(lastSeq uint64, lastEpoch int64) Snapshot {
	entries := make([]PositionEntry, 0, len(r.positions))
	for instrumentID, qty := range r.positions {
		entries = append(entries, PositionEntry{
			InstrumentID: instrumentID,
			Qty:          qty,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].InstrumentID < entries[j].InstrumentID
	})
	return Snapshot{
		Timestamp: time.Now().UTC().UnixNano(),
		LastSeq:   lastSeq,
		LastEpoch: lastEpoch,
		Positions: entries,
	}
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks if two snapshots hold the same positions.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Positions) != len(actual.Positions) {
		return fmt.Errorf("snapshot length mismatch: expected=%d actual=%d", len(expected.Positions), len(actual.Positions))
	}
	expectedMap := make(map[uint32]schema.Quantity, len(expected.Positions))
	for _, entry := range expected.Positions {
		expectedMap[entry.InstrumentID] = entry.Qty
	}
	for _, entry := range actual.Positions {
		want, ok := expectedMap[entry.InstrumentID]
		if !ok {
			return fmt.Errorf("snapshot missing instrument: %d", entry.InstrumentID)
		}
		if want != entry.Qty {
			return fmt.Errorf("snapshot qty mismatch: instrument=%d expected=%d actual=%d",
				entry.InstrumentID, want, entry.Qty)
		}
	}
	return nil
}
