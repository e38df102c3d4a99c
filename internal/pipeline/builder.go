package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/wikidex/internal/dump"
	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
	"github.com/Aman-CERP/wikidex/internal/store"
	"github.com/Aman-CERP/wikidex/internal/ui"
)

// Defaults applied by NewBuilder to zero Options fields.
const (
	DefaultWorkers       = 3
	DefaultQueueCapacity = 1000
)

// Options tunes a build.
type Options struct {
	Workers       int
	QueueCapacity int
	// MinBodyLength is the minimum body length in characters. Zero keeps
	// every body.
	MinBodyLength int
	// MaxRecords stops extraction after this many queued records. 0 disables.
	MaxRecords int
	// DedupeWindow remembers this many recent titles. 0 disables.
	DedupeWindow int
	// Encoding is the charset the source was decoded with.
	Encoding string
	// IDBase is the first id to assign. 0 means 1.
	IDBase store.DocumentID
	// ProgressInterval reports progress every N extracted records. 0 disables.
	ProgressInterval int
}

// BuilderDependencies holds injected dependencies for testing.
type BuilderDependencies struct {
	Source   Source
	Index    Index
	Renderer ui.Renderer
	Logger   *slog.Logger
}

// Builder runs one extraction-to-index pass. It owns Source and Index and
// closes both when Run returns.
type Builder struct {
	source   Source
	index    Index
	renderer ui.Renderer
	logger   *slog.Logger
	opts     Options
	titles   *TitleDecoder
	seen     *lru.Cache[string, struct{}]
}

// NewBuilder validates opts and wires the pipeline. On error nothing is
// closed; the caller still owns Source and Index.
func NewBuilder(deps BuilderDependencies, opts Options) (*Builder, error) {
	if deps.Source == nil {
		return nil, wderrors.New(wderrors.ErrCodeInternal, "builder: source is required", nil)
	}
	if deps.Index == nil {
		return nil, wderrors.New(wderrors.ErrCodeInternal, "builder: index is required", nil)
	}

	if opts.Workers == 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueCapacity == 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.IDBase == 0 {
		opts.IDBase = 1
	}
	if opts.Encoding == "" {
		opts.Encoding = dump.DefaultEncoding
	}
	if opts.Workers < 0 || opts.QueueCapacity < 0 || opts.MinBodyLength < 0 || opts.MaxRecords < 0 || opts.DedupeWindow < 0 {
		return nil, wderrors.New(wderrors.ErrCodeConfigInvalid,
			fmt.Sprintf("invalid build options: workers=%d queue_capacity=%d min_body_length=%d max_records=%d dedupe_window=%d",
				opts.Workers, opts.QueueCapacity, opts.MinBodyLength, opts.MaxRecords, opts.DedupeWindow), nil)
	}

	titles, err := NewTitleDecoder(opts.Encoding)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		source:   deps.Source,
		index:    deps.Index,
		renderer: deps.Renderer,
		logger:   deps.Logger,
		opts:     opts,
		titles:   titles,
	}
	if b.renderer == nil {
		b.renderer = ui.NewPlainRenderer(ui.NewConfig(io.Discard))
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if opts.DedupeWindow > 0 {
		seen, err := lru.New[string, struct{}](opts.DedupeWindow)
		if err != nil {
			return nil, wderrors.New(wderrors.ErrCodeConfigInvalid, "invalid dedupe window", err)
		}
		b.seen = seen
	}

	return b, nil
}

// Run starts the workers, runs the producer on the calling goroutine, waits
// for every worker, then closes the index and the source. Both are closed
// on every path. The result is non-nil even when err is not.
//
// A stream failure (malformed dump, decompression error) still stops and
// joins the workers, so everything queued before the failure is indexed.
// A cancelled ctx yields an error matching ErrInterrupted. If the index
// lost a buffered batch, Indexed and Failed reflect what was committed and
// the error carries ERR_402.
func (b *Builder) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	stats := &counters{}
	queue := NewQueue(b.opts.QueueCapacity)
	alloc := NewIDAllocator(b.opts.IDBase)
	var written store.WriteStats
	reporter, buffered := b.index.(writeReporter)
	if buffered {
		written = reporter.WriteStats()
	}

	defer func() {
		closeErr := b.close()
		res = stats.result(alloc, time.Since(start))
		if closeErr != nil {
			b.logger.Error("build_close_failed", slog.String("error", closeErr.Error()))
			err = stderrors.Join(err, closeErr)
		}
		if buffered {
			if lostErr := reconcileWrites(res, written, reporter.WriteStats()); lostErr != nil {
				b.logger.Error("batch_write_lost",
					slog.Int64("indexed", res.Indexed),
					slog.Int64("failed", res.Failed))
				if err == nil {
					err = lostErr
				} else {
					err = stderrors.Join(err, lostErr)
				}
			}
		}
		b.renderer.Complete(res.CompletionStats())
		b.logger.Info("build_complete",
			slog.Int64("extracted", res.Extracted),
			slog.Int64("indexed", res.Indexed),
			slog.Int64("rejected", res.Rejected),
			slog.Int64("short", res.Short),
			slog.Int64("duplicates", res.Duplicates),
			slog.Int64("invalid", res.Invalid),
			slog.Int64("failed", res.Failed),
			slog.Uint64("first_id", uint64(res.FirstID)),
			slog.Uint64("last_id", uint64(res.LastID)),
			slog.Bool("truncated", res.Truncated),
			slog.Duration("duration", res.Duration),
			slog.Bool("ok", err == nil))
	}()

	b.logger.Info("build_started",
		slog.Int("workers", b.opts.Workers),
		slog.Int("queue_capacity", queue.Cap()),
		slog.Int("min_body_length", b.opts.MinBodyLength),
		slog.Int("max_records", b.opts.MaxRecords),
		slog.Uint64("id_base", uint64(alloc.Base())),
		slog.String("encoding", b.opts.Encoding))

	var g errgroup.Group
	for i := 0; i < b.opts.Workers; i++ {
		w := &Worker{
			id:       i + 1,
			queue:    queue,
			alloc:    alloc,
			index:    b.index,
			minBody:  b.opts.MinBodyLength,
			stats:    stats,
			renderer: b.renderer,
			logger:   b.logger,
		}
		g.Go(func() error { return w.Run(ctx) })
	}

	p := &Producer{
		source:   b.source,
		queue:    queue,
		titles:   b.titles,
		seen:     b.seen,
		workers:  b.opts.Workers,
		max:      int64(b.opts.MaxRecords),
		interval: int64(b.opts.ProgressInterval),
		stats:    stats,
		renderer: b.renderer,
		logger:   b.logger,
	}
	streamErr := p.Run(ctx)

	b.renderer.UpdateProgress(stats.progress(ui.StageDraining, queue))
	workerErr := g.Wait()

	if streamErr != nil {
		return nil, streamErr
	}
	return nil, workerErr
}

// reconcileWrites replaces the workers' count of accepted Adds with what
// the index actually committed during this run. Every document handed to
// Add is either committed or failed. It returns ERR_402 if any buffered
// batch was lost.
func reconcileWrites(res *Result, before, after store.WriteStats) error {
	committed := int64(after.Committed - before.Committed)
	lost := after.Lost - before.Lost
	submitted := res.Indexed + res.Failed

	res.Indexed = committed
	res.Failed = submitted - committed
	if lost == 0 {
		return nil
	}
	return wderrors.New(wderrors.ErrCodeIndexWrite,
		fmt.Sprintf("%d buffered documents were lost in failed batch writes", lost), nil).
		WithDetail("committed", fmt.Sprint(committed))
}

// close closes the index, then the source, and joins their errors.
func (b *Builder) close() error {
	var errs []error
	if err := b.index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close index: %w", err))
	}
	if err := b.source.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close source: %w", err))
	}
	return stderrors.Join(errs...)
}
