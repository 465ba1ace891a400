package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"main/pkg/scanner"
)

var seqKey = []byte(`"seq"`)

// PlaybackConfig controls journal playback behavior.
type PlaybackConfig struct {
	Path string

	// Speed paces replay by report epoch deltas. Zero replays as fast as
	// possible, 1 at recorded pace, 2 at double pace.
	Speed float64

	// AfterSeq skips entries up to and including the sequence number,
	// letting recovery resume after a snapshot.
	AfterSeq uint64

	MaxLineSize int
}

func (c PlaybackConfig) withDefaults() PlaybackConfig {
	if c.MaxLineSize <= 0 {
		c.MaxLineSize = 1 << 20
	}
	return c
}

// Validate checks if the config is usable.
func (c PlaybackConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("invalid playback config: Path is empty")
	}
	if c.Speed < 0 {
		return fmt.Errorf("invalid playback config: Speed must be >= 0")
	}
	return nil
}

// Clock allows deterministic playback control.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Playback replays journaled execution reports in file order.
type Playback struct {
	cfg   PlaybackConfig
	clock Clock
}

// NewPlayback validates the config and creates a playback engine.
func NewPlayback(cfg PlaybackConfig) (*Playback, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Playback{cfg: cfg, clock: realClock{}}, nil
}

// WithClock swaps the clock implementation.
func (p *Playback) WithClock(clock Clock) *Playback {
	if clock != nil {
		p.clock = clock
	}
	return p
}

// Run replays journal entries and calls the handler for each one.
func (p *Playback) Run(ctx context.Context, handler func(Entry) error) error {
	if handler == nil {
		return errors.New("playback handler is nil")
	}
	file, err := os.Open(p.cfg.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 64*1024), p.cfg.MaxLineSize)

	var prevEpoch int64
	lineNo := 0
	for sc.Scan() {
		lineNo++
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		// Entries covered by a snapshot are skipped on the raw bytes,
		// without a full decode.
		if p.cfg.AfterSeq > 0 {
			if seq, ok := scanner.ScanUintField(line, seqKey); ok && seq <= p.cfg.AfterSeq {
				continue
			}
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return fmt.Errorf("decode %s line %d: %w", p.cfg.Path, lineNo, err)
		}
		if err := p.pace(ctx, entry.Report.Epoch, &prevEpoch); err != nil {
			return err
		}
		if err := handler(entry); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (p *Playback) pace(ctx context.Context, epoch int64, prevEpoch *int64) error {
	if p.cfg.Speed <= 0 || epoch <= 0 {
		return nil
	}
	if *prevEpoch > 0 {
		if delta := epoch - *prevEpoch; delta > 0 {
			sleep := time.Duration(float64(delta) / p.cfg.Speed)
			if err := p.clock.Sleep(ctx, sleep); err != nil {
				return err
			}
		}
	}
	*prevEpoch = epoch
	return nil
}
