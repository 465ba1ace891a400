package state

import (
	"context"
	"fmt"

	"main/internal/recorder"
)

// RecoverConfig controls snapshot plus journal recovery.
type RecoverConfig struct {
	JournalPath  string
	SnapshotPath string
	MaxLineSize  int
}

// RecoverResult contains recovered state and metadata.
type RecoverResult struct {
	Positions *PositionReducer
	LastSeq   uint64
	LastEpoch int64
}

// RecoverPositions loads a snapshot and replays the journal tail to
// rebuild net positions.
func RecoverPositions(ctx context.Context, cfg RecoverConfig) (RecoverResult, error) {
	if cfg.JournalPath == "" {
		return RecoverResult{}, fmt.Errorf("journal path is empty")
	}
	positions := NewPositionReducer()
	var lastSeq uint64
	var lastEpoch int64

	if cfg.SnapshotPath != "" {
		snapshot, err := ReadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return RecoverResult{}, err
		}
		positions.ApplySnapshot(snapshot)
		lastSeq = snapshot.LastSeq
		lastEpoch = snapshot.LastEpoch
	}

	pb, err := recorder.NewPlayback(recorder.PlaybackConfig{
		Path:        cfg.JournalPath,
		AfterSeq:    lastSeq,
		MaxLineSize: cfg.MaxLineSize,
	})
	if err != nil {
		return RecoverResult{}, err
	}

	err = pb.Run(ctx, func(entry recorder.Entry) error {
		if entry.Seq > lastSeq {
			lastSeq = entry.Seq
		}
		if entry.Report.Epoch > lastEpoch {
			lastEpoch = entry.Report.Epoch
		}
		if entry.Report.LastQty > 0 {
			positions.ApplyFill(entry.Report.Instrument.ID, entry.Report.Direction, entry.Report.LastQty)
		}
		return nil
	})
	if err != nil {
		return RecoverResult{}, err
	}

	return RecoverResult{
		Positions: positions,
		LastSeq:   lastSeq,
		LastEpoch: lastEpoch,
	}, nil
}
