// Package metrics collects business metrics for the query pipeline.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// PipelineMetrics tracks counters across the lifetime of the process.
type PipelineMetrics struct {
	queriesTotal  uint64
	queriesFailed uint64

	// Per-stage failure counters, keyed by stage tag.
	classifyErrors uint64
	retrieveErrors uint64
	generateErrors uint64
	qualityErrors  uint64
	rateLimited    uint64
	retrievalSkips uint64

	// Verdict counters.
	accepted       uint64
	rejected       uint64
	manualReviewed uint64

	durationMu      sync.Mutex
	processDuration float64 // seconds, successful runs only

	startTime time.Time
}

var (
	global     *PipelineMetrics
	globalOnce sync.Once
)

// Get returns the process-wide metrics instance.
func Get() *PipelineMetrics {
	globalOnce.Do(func() {
		global = &PipelineMetrics{startTime: time.Now()}
	})
	return global
}

// RecordProcess records a full pipeline run.
func (m *PipelineMetrics) RecordProcess(duration time.Duration, decision string, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesFailed, 1)
		return
	}

	m.durationMu.Lock()
	m.processDuration += duration.Seconds()
	m.durationMu.Unlock()

	switch decision {
	case "accept":
		atomic.AddUint64(&m.accepted, 1)
	case "reject":
		atomic.AddUint64(&m.rejected, 1)
	case "manual_review":
		atomic.AddUint64(&m.manualReviewed, 1)
	}
}

// RecordStageError records a collaborator failure by stage tag.
func (m *PipelineMetrics) RecordStageError(stage string) {
	switch stage {
	case "classification":
		atomic.AddUint64(&m.classifyErrors, 1)
	case "retrieval":
		atomic.AddUint64(&m.retrieveErrors, 1)
	case "generation":
		atomic.AddUint64(&m.generateErrors, 1)
	case "quality_check":
		atomic.AddUint64(&m.qualityErrors, 1)
	}
}

// RecordRateLimited records an admission rejection.
func (m *PipelineMetrics) RecordRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// RecordRetrievalSkip records a request whose classification made retrieval
// unnecessary.
func (m *PipelineMetrics) RecordRetrievalSkip() {
	atomic.AddUint64(&m.retrievalSkips, 1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	QueriesTotal   uint64  `json:"queries_total"`
	QueriesFailed  uint64  `json:"queries_failed"`
	Accepted       uint64  `json:"accepted"`
	Rejected       uint64  `json:"rejected"`
	ManualReviewed uint64  `json:"manual_reviewed"`
	RetrievalSkips uint64  `json:"retrieval_skips"`
	RateLimited    uint64  `json:"rate_limited"`
	StageErrors    Stages  `json:"stage_errors"`
	AvgProcessMS   float64 `json:"avg_process_ms"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}

// Stages breaks failures down by pipeline stage.
type Stages struct {
	Classification uint64 `json:"classification"`
	Retrieval      uint64 `json:"retrieval"`
	Generation     uint64 `json:"generation"`
	QualityCheck   uint64 `json:"quality_check"`
}

// Snapshot returns the current counter values. The average is computed over
// successful runs.
func (m *PipelineMetrics) Snapshot() Snapshot {
	total := atomic.LoadUint64(&m.queriesTotal)
	failed := atomic.LoadUint64(&m.queriesFailed)

	m.durationMu.Lock()
	totalSeconds := m.processDuration
	m.durationMu.Unlock()

	var avgMS float64
	if succeeded := total - failed; succeeded > 0 {
		avgMS = totalSeconds / float64(succeeded) * 1000
	}

	return Snapshot{
		QueriesTotal:   total,
		QueriesFailed:  failed,
		Accepted:       atomic.LoadUint64(&m.accepted),
		Rejected:       atomic.LoadUint64(&m.rejected),
		ManualReviewed: atomic.LoadUint64(&m.manualReviewed),
		RetrievalSkips: atomic.LoadUint64(&m.retrievalSkips),
		RateLimited:    atomic.LoadUint64(&m.rateLimited),
		StageErrors: Stages{
			Classification: atomic.LoadUint64(&m.classifyErrors),
			Retrieval:      atomic.LoadUint64(&m.retrieveErrors),
			Generation:     atomic.LoadUint64(&m.generateErrors),
			QualityCheck:   atomic.LoadUint64(&m.qualityErrors),
		},
		AvgProcessMS:  avgMS,
		UptimeSeconds: time.Since(m.startTime).Seconds(),
	}
}

// Reset zeroes all counters. Test helper.
func (m *PipelineMetrics) Reset() {
	atomic.StoreUint64(&m.queriesTotal, 0)
	atomic.StoreUint64(&m.queriesFailed, 0)
	atomic.StoreUint64(&m.classifyErrors, 0)
	atomic.StoreUint64(&m.retrieveErrors, 0)
	atomic.StoreUint64(&m.generateErrors, 0)
	atomic.StoreUint64(&m.qualityErrors, 0)
	atomic.StoreUint64(&m.rateLimited, 0)
	atomic.StoreUint64(&m.retrievalSkips, 0)
	atomic.StoreUint64(&m.accepted, 0)
	atomic.StoreUint64(&m.rejected, 0)
	atomic.StoreUint64(&m.manualReviewed, 0)

	m.durationMu.Lock()
	m.processDuration = 0
	m.durationMu.Unlock()

	m.startTime = time.Now()
}
