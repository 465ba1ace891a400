package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxOrdStatus = int(schema.OrdStatusCancelRejected)

// Metrics collects lightweight counters and latency stats for report
// application.
type Metrics struct {
	statusCounts [maxOrdStatus + 1]uint64
	reportErrors uint64
	synthesized  uint64
	finished     uint64
	queueDrops   uint64
	queueClosed  uint64

	reportLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	StatusCounts  map[schema.OrdStatus]uint64
	ReportErrors  uint64
	Synthesized   uint64
	Finished      uint64
	QueueDrops    uint64
	QueueClosed   uint64
	ReportLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveReport records the resulting status of one applied report and its
// application latency.
func (m *Metrics) ObserveReport(status schema.OrdStatus, d time.Duration) {
	if m == nil {
		return
	}
	idx := int(status)
	if idx >= 0 && idx < len(m.statusCounts) {
		atomic.AddUint64(&m.statusCounts[idx], 1)
	}
	if status.IsTerminal() {
		atomic.AddUint64(&m.finished, 1)
	}
	m.reportLatency.Observe(d)
}

// IncReportError records a failed report application.
func (m *Metrics) IncReportError() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.reportErrors, 1)
}

// IncSynthesized records a foreign order synthesized from a report.
func (m *Metrics) IncSynthesized() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.synthesized, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	statusCounts := make(map[schema.OrdStatus]uint64)
	for i := range m.statusCounts {
		if v := atomic.LoadUint64(&m.statusCounts[i]); v > 0 {
			statusCounts[schema.OrdStatus(i)] = v
		}
	}
	return Snapshot{
		StatusCounts:  statusCounts,
		ReportErrors:  atomic.LoadUint64(&m.reportErrors),
		Synthesized:   atomic.LoadUint64(&m.synthesized),
		Finished:      atomic.LoadUint64(&m.finished),
		QueueDrops:    atomic.LoadUint64(&m.queueDrops),
		QueueClosed:   atomic.LoadUint64(&m.queueClosed),
		ReportLatency: m.reportLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
