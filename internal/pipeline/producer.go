package pipeline

import (
	"context"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/wikidex/internal/ui"
)

// Producer reads the source once, in order, and feeds the queue.
type Producer struct {
	source   Source
	queue    *Queue
	titles   *TitleDecoder
	seen     *lru.Cache[string, struct{}]
	workers  int
	max      int64
	interval int64
	stats    *counters
	renderer ui.Renderer
	logger   *slog.Logger
}

// Run extracts until the source is exhausted, max records are queued, an
// error ends the stream, or ctx is done. Whatever the reason, it then
// enqueues one stop marker per worker. It returns the stream error, if any.
func (p *Producer) Run(ctx context.Context) error {
	err := p.extract(ctx)
	p.sendStops(ctx)
	return err
}

func (p *Producer) extract(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return interrupted("extract", err)
		}
		if p.max > 0 && p.stats.extracted.Load() >= p.max {
			// Only a page left unread makes the run truncated.
			if _, err := p.source.Next(); err == io.EOF {
				return nil
			}
			p.stats.truncated.Store(true)
			p.logger.Info("max_records_reached", slog.Int64("max_records", p.max))
			return nil
		}

		page, err := p.source.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			p.logger.Error("dump_read_failed",
				slog.Int64("extracted", p.stats.extracted.Load()),
				slog.String("error", err.Error()))
			return err
		}

		title, err := p.titles.Decode(page.Title)
		if err != nil {
			p.stats.invalid.Add(1)
			p.logger.Warn("record_skipped",
				slog.String("reason", "title_encoding"),
				slog.Int64("page_id", page.ID),
				slog.String("error", err.Error()))
			p.renderer.AddError(ui.ErrorEvent{Title: page.Title, Err: err, IsWarn: true})
			continue
		}

		if title == "" || IsNamespaced(title) {
			p.stats.rejected.Add(1)
			p.logger.Debug("record_skipped",
				slog.String("reason", "namespace"),
				slog.String("title", title),
				slog.Int("ns", page.Namespace),
				slog.Bool("redirect", page.IsRedirect()))
			continue
		}

		if p.seen != nil {
			if found, _ := p.seen.ContainsOrAdd(title, struct{}{}); found {
				p.stats.duplicates.Add(1)
				p.logger.Debug("record_skipped",
					slog.String("reason", "duplicate"),
					slog.String("title", title))
				continue
			}
		}

		if err := p.queue.Put(ctx, Record{Title: title, Body: page.Text}); err != nil {
			p.logger.Warn("record_skipped",
				slog.String("reason", "put_failed"),
				slog.String("title", title),
				slog.String("error", err.Error()))
			if ctx.Err() != nil {
				return err
			}
			continue
		}

		n := p.stats.extracted.Add(1)
		if p.interval > 0 && n%p.interval == 0 {
			ev := p.stats.progress(ui.StageExtracting, p.queue)
			ev.LastTitle = title
			p.renderer.UpdateProgress(ev)
			p.logger.Debug("build_progress",
				slog.Int64("extracted", ev.Extracted),
				slog.Int64("indexed", ev.Indexed),
				slog.Int("queue_depth", ev.QueueDepth))
		}
	}
}

// sendStops enqueues one stop marker per worker. If ctx is already done the
// workers exit through their own Take, so a failed Stop is only logged.
func (p *Producer) sendStops(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		if err := p.queue.Stop(ctx); err != nil {
			p.logger.Warn("stop_marker_failed",
				slog.Int("sent", i),
				slog.Int("workers", p.workers),
				slog.String("error", err.Error()))
			return
		}
	}
}
