package pipeline

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/Aman-CERP/wikidex/internal/store"
	"github.com/Aman-CERP/wikidex/internal/ui"
)

// Worker takes records until it receives a stop marker.
type Worker struct {
	id       int
	queue    *Queue
	alloc    *IDAllocator
	index    Index
	minBody  int
	stats    *counters
	renderer ui.Renderer
	logger   *slog.Logger
}

// Run processes records until a stop marker (nil) or cancellation (error).
func (w *Worker) Run(ctx context.Context) error {
	for {
		rec, ok, err := w.queue.Take(ctx)
		if err != nil {
			return err
		}
		if !ok {
			w.logger.Debug("worker_stopped", slog.Int("worker", w.id))
			return nil
		}

		// Body length is counted in runes.
		if utf8.RuneCountInString(rec.Body) < w.minBody {
			w.stats.short.Add(1)
			continue
		}

		id := w.alloc.Next()
		doc := &store.Document{ID: id, Title: rec.Title, Body: rec.Body}
		if err := w.index.Add(ctx, doc); err != nil {
			w.stats.failed.Add(1)
			w.logger.Warn("index_write_failed",
				slog.Int("worker", w.id),
				slog.Uint64("id", uint64(id)),
				slog.String("title", rec.Title),
				slog.String("error", err.Error()))
			w.renderer.AddError(ui.ErrorEvent{Title: rec.Title, Err: err, IsWarn: true})
			continue
		}
		w.stats.indexed.Add(1)
	}
}
