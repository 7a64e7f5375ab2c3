// Package metrics records operational metrics for the merge pipeline
// through a pluggable Backend.
//
// The global backend defaults to a no-op so instrumentation is always safe to
// call. Concrete systems live in subpackages (prompush, datadog) and are
// installed once at startup with SetBackend.
//
// Metric families:
//
//	moviemerge_stage_total            counter   stage, status
//	moviemerge_stage_duration_seconds histogram stage, status
//	moviemerge_rows_total             counter   source, kind
//	moviemerge_batches_total          counter   (load only)
package metrics

import (
	"sync"
	"time"
)

// Metric names shared with the backends.
const (
	StageTotal    = "moviemerge_stage_total"
	StageDuration = "moviemerge_stage_duration_seconds"
	RowsTotal     = "moviemerge_rows_total"
	BatchesTotal  = "moviemerge_batches_total"
)

// Row kinds reported by RecordRow.
const (
	KindRead      = "read"
	KindRetained  = "retained"
	KindSkipped   = "skipped"
	KindTruncated = "truncated"
	KindWritten   = "written"
	KindInserted  = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// Implementations must be safe for concurrent use: index builders report
// from their own goroutines.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStage records one execution of a pipeline stage (an index build, the
// join, or a load) with its outcome and duration.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}
	b := current()
	b.IncCounter(StageTotal, 1, lbls)
	b.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRow adds delta rows of the given kind for a source.
func RecordRow(job, source, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"job":    job,
		"source": source,
		"kind":   kind,
	})
}

// RecordBatches increments the load batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{"job": job})
}
