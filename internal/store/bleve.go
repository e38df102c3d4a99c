package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/de"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/lang/es"
	"github.com/blevesearch/bleve/v2/analysis/lang/fr"
	"github.com/blevesearch/bleve/v2/analysis/lang/it"
	"github.com/blevesearch/bleve/v2/mapping"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

const (
	fieldTitle = "title"
	fieldBody  = "body"

	titleBoost = 2.0
)

// BleveIndex stores pages in a Bleve v2 index with a per-language analyzer.
type BleveIndex struct {
	mu        sync.Mutex
	index     bleve.Index
	batch     *bleve.Batch
	batchSize int
	path      string
	closed    bool
	written   WriteStats
}

type bleveDocument struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// analyzerFor maps a language code to a registered Bleve analyzer.
func analyzerFor(lang string) string {
	switch lang {
	case "en":
		return en.AnalyzerName
	case "it":
		return it.AnalyzerName
	case "de":
		return de.AnalyzerName
	case "fr":
		return fr.AnalyzerName
	case "es":
		return es.AnalyzerName
	default:
		return standard.Name
	}
}

func newPageMapping(lang string) *mapping.IndexMappingImpl {
	analyzer := analyzerFor(lang)

	title := bleve.NewTextFieldMapping()
	title.Analyzer = analyzer
	title.Store = true

	body := bleve.NewTextFieldMapping()
	body.Analyzer = analyzer
	body.Store = false
	body.IncludeTermVectors = false

	page := bleve.NewDocumentMapping()
	page.AddFieldMappingsAt(fieldTitle, title)
	page.AddFieldMappingsAt(fieldBody, body)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = page
	im.DefaultAnalyzer = analyzer
	return im
}

// BleveIndexPath returns where the Bleve index lives inside an output directory.
func BleveIndexPath(dir string) string {
	return filepath.Join(dir, "pages.bleve")
}

// NewBleveIndex creates a new index. An empty opts.Dir creates an in-memory index.
func NewBleveIndex(opts Options) (*BleveIndex, error) {
	im := newPageMapping(opts.language())

	var (
		idx  bleve.Index
		err  error
		path string
	)
	if opts.Dir == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, wderrors.New(wderrors.ErrCodeIndexInit,
				fmt.Sprintf("failed to create directory %s", opts.Dir), err)
		}
		path = BleveIndexPath(opts.Dir)
		idx, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeIndexInit, "failed to create bleve index", err).
			WithDetail("path", path)
	}

	slog.Debug("bleve_index_created",
		slog.String("path", path),
		slog.String("analyzer", analyzerFor(opts.language())))

	return newBleveIndex(idx, path, opts.batchSize()), nil
}

// OpenBleveIndex opens an existing on-disk index.
func OpenBleveIndex(opts Options) (*BleveIndex, error) {
	path := BleveIndexPath(opts.Dir)
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return nil, wderrors.New(wderrors.ErrCodeIndexNotFound,
			fmt.Sprintf("no bleve index at %s", path), err)
	}
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeIndexInit, "failed to open bleve index", err).
			WithDetail("path", path)
	}
	return newBleveIndex(idx, path, opts.batchSize()), nil
}

func newBleveIndex(idx bleve.Index, path string, batchSize int) *BleveIndex {
	return &BleveIndex{
		index:     idx,
		batch:     idx.NewBatch(),
		batchSize: batchSize,
		path:      path,
	}
}

// Add implements Index.
func (b *BleveIndex) Add(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return wderrors.New(wderrors.ErrCodeIndexWrite, "index is closed", nil)
	}

	id := strconv.FormatUint(uint64(doc.ID), 10)
	if err := b.batch.Index(id, bleveDocument{Title: doc.Title, Body: doc.Body}); err != nil {
		return wderrors.New(wderrors.ErrCodeIndexWrite,
			fmt.Sprintf("failed to index document %s", id), err)
	}

	if b.batch.Size() >= b.batchSize {
		return b.flushLocked()
	}
	return nil
}

// WriteStats implements Index.
func (b *BleveIndex) WriteStats() WriteStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

func (b *BleveIndex) flushLocked() error {
	n := b.batch.Size()
	if n == 0 {
		return nil
	}
	err := b.index.Batch(b.batch)
	b.batch.Reset()
	if err != nil {
		b.written.Lost += uint64(n)
		return wderrors.New(wderrors.ErrCodeIndexWrite,
			fmt.Sprintf("failed to write batch of %d documents", n), err)
	}
	b.written.Committed += uint64(n)
	return nil
}

// Search implements Index. Title matches weigh more than body matches.
func (b *BleveIndex) Search(ctx context.Context, queryStr string, limit int) ([]*SearchResult, error) {
	if strings.TrimSpace(queryStr) == "" {
		return nil, wderrors.New(wderrors.ErrCodeInvalidQuery, "query is empty", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, wderrors.New(wderrors.ErrCodeIndexNotFound, "index is closed", nil)
	}
	if err := b.flushLocked(); err != nil {
		return nil, err
	}

	titleQuery := bleve.NewMatchQuery(queryStr)
	titleQuery.SetField(fieldTitle)
	titleQuery.SetBoost(titleBoost)
	bodyQuery := bleve.NewMatchQuery(queryStr)
	bodyQuery.SetField(fieldBody)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(titleQuery, bodyQuery))
	req.Size = limit
	req.Fields = []string{fieldTitle}

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]*SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		title, _ := hit.Fields[fieldTitle].(string)
		results = append(results, &SearchResult{
			ID:    DocumentID(id),
			Title: title,
			Score: hit.Score,
		})
	}
	return results, nil
}

// Count implements Index.
func (b *BleveIndex) Count(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, wderrors.New(wderrors.ErrCodeIndexNotFound, "index is closed", nil)
	}
	if err := b.flushLocked(); err != nil {
		return 0, err
	}
	return b.index.DocCount()
}

// Close implements Index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	flushErr := b.flushLocked()
	closeErr := b.index.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

var _ Index = (*BleveIndex)(nil)
