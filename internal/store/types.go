// Package store holds the full-text indexes wikidex builds: a Bleve index
// and a SQLite FTS5 index behind one Index interface, plus the manifest and
// lock that live next to them in the output directory.
package store

import (
	"context"
	"strings"
)

// DocumentID identifies one indexed page. IDs are minted by the build
// pipeline's allocator, never by the index.
type DocumentID uint64

// Document is one page handed to the index.
type Document struct {
	ID    DocumentID
	Title string
	Body  string
}

// SearchResult is a single scored hit. Higher scores are better for both
// backends.
type SearchResult struct {
	ID    DocumentID
	Title string
	Score float64
}

// Backend names.
const (
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
)

// Options configures Create and Open.
type Options struct {
	// Dir is the output directory. Empty means an in-memory index.
	Dir string
	// Language selects stemming and stop words ("en", "it", "de", "fr", "es").
	// Other values fall back to language-neutral analysis.
	Language string
	// Backend is BackendBleve (default) or BackendSQLite.
	Backend string
	// BatchSize is the number of documents buffered before a write.
	BatchSize int
}

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 500

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

func (o Options) language() string {
	return strings.ToLower(strings.TrimSpace(o.Language))
}

// WriteStats counts what happened to documents after Add buffered them.
type WriteStats struct {
	// Committed documents were written to the index.
	Committed uint64
	// Lost documents were buffered but their batch failed to write.
	Lost uint64
}

// Index is the indexing engine. Add is safe for concurrent use by many
// workers; writes are buffered and become visible after Search, Count or
// Close. A nil error from Add only means the document was buffered.
type Index interface {
	// Add buffers doc for writing.
	Add(ctx context.Context, doc *Document) error

	// WriteStats reports committed and lost documents so far.
	WriteStats() WriteStats

	// Search returns up to limit documents matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]*SearchResult, error)

	// Count returns the number of documents in the index.
	Count(ctx context.Context) (uint64, error)

	// Close flushes and releases the index. Safe to call more than once.
	Close() error
}

// SupportedLanguages lists languages with dedicated analysis.
var SupportedLanguages = []string{"en", "it", "de", "fr", "es"}

// IsSupportedLanguage reports whether lang has dedicated analysis.
func IsSupportedLanguage(lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
