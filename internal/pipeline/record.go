package pipeline

import (
	"context"

	"github.com/Aman-CERP/wikidex/internal/dump"
	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
	"github.com/Aman-CERP/wikidex/internal/store"
)

// Record is one accepted page on its way to the index.
type Record struct {
	Title string
	Body  string
}

// item is what travels through the queue: a record or a stop marker.
type item struct {
	stop bool
	rec  Record
}

// Source yields pages in order; Next returns io.EOF when exhausted.
// *dump.Reader implements it.
type Source interface {
	Next() (*dump.Page, error)
	Close() error
}

// Index receives accepted documents. Add must be safe for concurrent use.
// store.Index implements it.
type Index interface {
	Add(ctx context.Context, doc *store.Document) error
	Close() error
}

// writeReporter is implemented by indexes that buffer writes, such as
// store.Index. A nil error from Add then only means the record was buffered.
type writeReporter interface {
	WriteStats() store.WriteStats
}

// ErrInterrupted matches any error caused by cancellation of a blocking
// queue operation (errors.Is compares codes).
var ErrInterrupted = wderrors.New(wderrors.ErrCodeInterrupted, "interrupted", nil)

func interrupted(op string, cause error) error {
	return wderrors.New(wderrors.ErrCodeInterrupted, op+" interrupted", cause)
}
