package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

// PlainRenderer writes one line per event (for CI, pipes and log files).
type PlainRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	warnings int
	errors   int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	return &PlainRenderer{out: out}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
// Format: [STAGE] extracted N, indexed N, queue D/C - message
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("[%s] extracted %s, indexed %s, queue %d/%d",
		event.Stage.Icon(),
		humanize.Comma(event.Extracted),
		humanize.Comma(event.Indexed),
		event.QueueDepth, event.QueueCap)
	if event.Message != "" {
		line += " - " + event.Message
	}
	_, _ = fmt.Fprintln(r.out, line)
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
		r.warnings++
	} else {
		r.errors++
	}

	if event.Title != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Title, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %s pages extracted, %s indexed in %s\n",
		humanize.Comma(stats.Extracted), humanize.Comma(stats.Indexed), formatDuration(stats.Duration))
	_, _ = fmt.Fprintf(r.out, "  skipped: %s namespaced, %s short, %s duplicate, %s bad title\n",
		humanize.Comma(stats.Rejected), humanize.Comma(stats.Short),
		humanize.Comma(stats.Duplicates), humanize.Comma(stats.Invalid))
	if stats.Indexed > 0 {
		_, _ = fmt.Fprintf(r.out, "  ids: %d..%d\n", stats.FirstID, stats.LastID)
	}
	if stats.Failed > 0 {
		_, _ = fmt.Fprintf(r.out, "  failed: %s\n", humanize.Comma(stats.Failed))
	}
	if stats.Truncated {
		_, _ = fmt.Fprintln(r.out, "  stopped early at max_records")
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
