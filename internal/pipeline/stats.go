package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/wikidex/internal/store"
	"github.com/Aman-CERP/wikidex/internal/ui"
)

// Result summarises one build.
type Result struct {
	// Extracted counts records handed to the queue, including ones the
	// workers later drop as short.
	Extracted int64
	// Rejected counts namespaced or untitled pages.
	Rejected int64
	// Duplicates counts titles seen within the dedupe window.
	Duplicates int64
	// Invalid counts titles the declared charset could not represent.
	Invalid int64
	// Indexed counts documents written to the index.
	Indexed int64
	Short   int64
	// Failed counts records the index refused or lost in a failed batch;
	// their ids are not reused.
	Failed int64
	// FirstID and LastID bound the ids assigned; both are zero when none were.
	FirstID store.DocumentID
	LastID  store.DocumentID
	// Truncated reports that MaxRecords stopped extraction while the source
	// still had pages.
	Truncated bool
	Duration  time.Duration
}

// Skipped returns every record that was read but not indexed.
func (r *Result) Skipped() int64 {
	return r.Rejected + r.Duplicates + r.Invalid + r.Short + r.Failed
}

// CompletionStats converts r for a renderer.
func (r *Result) CompletionStats() ui.CompletionStats {
	return ui.CompletionStats{
		Extracted:  r.Extracted,
		Rejected:   r.Rejected,
		Duplicates: r.Duplicates,
		Invalid:    r.Invalid,
		Indexed:    r.Indexed,
		Short:      r.Short,
		Failed:     r.Failed,
		FirstID:    uint64(r.FirstID),
		LastID:     uint64(r.LastID),
		Truncated:  r.Truncated,
		Duration:   r.Duration,
	}
}

// counters is shared by the producer and workers. While a run is in
// progress indexed counts successful Adds.
type counters struct {
	extracted  atomic.Int64
	rejected   atomic.Int64
	duplicates atomic.Int64
	invalid    atomic.Int64
	indexed    atomic.Int64
	short      atomic.Int64
	failed     atomic.Int64
	truncated  atomic.Bool
}

func (c *counters) result(alloc *IDAllocator, d time.Duration) *Result {
	r := &Result{
		Extracted:  c.extracted.Load(),
		Rejected:   c.rejected.Load(),
		Duplicates: c.duplicates.Load(),
		Invalid:    c.invalid.Load(),
		Indexed:    c.indexed.Load(),
		Short:      c.short.Load(),
		Failed:     c.failed.Load(),
		Truncated:  c.truncated.Load(),
		Duration:   d,
	}
	if alloc.Issued() > 0 {
		r.FirstID = alloc.Base()
		r.LastID = alloc.Last()
	}
	return r
}

func (c *counters) progress(stage ui.Stage, q *Queue) ui.ProgressEvent {
	return ui.ProgressEvent{
		Stage:      stage,
		Extracted:  c.extracted.Load(),
		Indexed:    c.indexed.Load(),
		Rejected:   c.rejected.Load(),
		Short:      c.short.Load(),
		Failed:     c.failed.Load(),
		QueueDepth: q.Len(),
		QueueCap:   q.Cap(),
	}
}
