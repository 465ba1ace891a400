package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/scanner"
)

var ErrJournalClosed = errors.New("journal closed")

const defaultBufferSize = 256 * 1024

// Entry is one journaled execution report. The sequence number is assigned
// at append time and increases strictly within a journal file, so recovery
// can resume after the last sequence covered by a snapshot.
type Entry struct {
	Seq    uint64           `json:"seq"`
	Report schema.OrdReport `json:"report"`
}

// JournalConfig controls journal file placement and buffering.
type JournalConfig struct {
	Path       string
	BufferSize int
}

func (c JournalConfig) withDefaults() JournalConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c JournalConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("invalid journal config: Path is empty")
	}
	return nil
}

// Journal appends execution reports to a JSON-lines file, one entry per
// line. Safe for concurrent use.
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	seq    *obs.SeqGenerator
	closed bool
}

// NewJournal opens the journal file for appending, creating parent
// directories as needed. Reopening an existing journal resumes the
// sequence after the highest number already on disk, so appended entries
// never collide with ones a snapshot may already cover.
func NewJournal(cfg JournalConfig) (*Journal, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	seed, err := lastSeq(cfg.Path, cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Journal{
		file: file,
		buf:  bufio.NewWriterSize(file, cfg.BufferSize),
		seq:  obs.NewSeqGenerator(seed),
	}, nil
}

// lastSeq scans an existing journal file for the highest assigned
// sequence number. A missing file is an empty journal.
func lastSeq(path string, maxLineSize int) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	var last uint64
	for sc.Scan() {
		if seq, ok := scanner.ScanUintField(sc.Bytes(), seqKey); ok && seq > last {
			last = seq
		}
	}
	return last, sc.Err()
}

// Append journals the report and returns its assigned sequence number.
func (j *Journal) Append(report schema.OrdReport) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return 0, ErrJournalClosed
	}
	entry := Entry{Seq: j.seq.Next(), Report: report}
	line, err := json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	if _, err := j.buf.Write(line); err != nil {
		return 0, err
	}
	if err := j.buf.WriteByte('\n'); err != nil {
		return 0, err
	}
	return entry.Seq, nil
}

// Flush pushes buffered entries to the file.
func (j *Journal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrJournalClosed
	}
	return j.buf.Flush()
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if err := j.buf.Flush(); err != nil {
		_ = j.file.Close()
		return err
	}
	return j.file.Close()
}
