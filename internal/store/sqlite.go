package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
)

// SQLiteIndex stores pages in a SQLite FTS5 table keyed by document id.
type SQLiteIndex struct {
	mu        sync.Mutex
	db        *sql.DB
	path      string
	pending   []*Document
	batchSize int
	closed    bool
	written   WriteStats
}

// SQLiteIndexPath returns where the SQLite database lives inside an output directory.
func SQLiteIndexPath(dir string) string {
	return filepath.Join(dir, "pages.db")
}

// fts5Tokenizer picks the FTS5 tokenizer for a language. FTS5 only ships an
// English stemmer, so other languages get diacritic folding only.
func fts5Tokenizer(lang string) string {
	if lang == "en" {
		return "porter unicode61"
	}
	return "unicode61 remove_diacritics 2"
}

// NewSQLiteIndex creates a new index. An empty opts.Dir creates an in-memory database.
func NewSQLiteIndex(opts Options) (*SQLiteIndex, error) {
	path := ""
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, wderrors.New(wderrors.ErrCodeIndexInit,
				fmt.Sprintf("failed to create directory %s", opts.Dir), err)
		}
		path = SQLiteIndexPath(opts.Dir)
	}

	s, err := openSQLite(path, opts.batchSize())
	if err != nil {
		return nil, err
	}

	schema := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
		title,
		body,
		tokenize = '%s'
	)`, fts5Tokenizer(opts.language()))
	if _, err := s.db.Exec(schema); err != nil {
		_ = s.db.Close()
		return nil, wderrors.New(wderrors.ErrCodeIndexInit, "failed to initialize schema", err)
	}

	slog.Debug("sqlite_index_created",
		slog.String("path", path),
		slog.String("tokenizer", fts5Tokenizer(opts.language())))

	return s, nil
}

// OpenSQLiteIndex opens an existing on-disk index.
func OpenSQLiteIndex(opts Options) (*SQLiteIndex, error) {
	path := SQLiteIndexPath(opts.Dir)
	if !fileExists(path) {
		return nil, wderrors.New(wderrors.ErrCodeIndexNotFound,
			fmt.Sprintf("no sqlite index at %s", path), nil)
	}
	return openSQLite(path, opts.batchSize())
}

func openSQLite(path string, batchSize int) (*SQLiteIndex, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeIndexInit, "failed to open database", err)
	}

	// One connection: writes are serialised anyway and :memory: databases
	// are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, wderrors.New(wderrors.ErrCodeIndexInit, "failed to set pragma", err).
				WithDetail("pragma", pragma)
		}
	}

	return &SQLiteIndex{
		db:        db,
		path:      path,
		batchSize: batchSize,
		pending:   make([]*Document, 0, batchSize),
	}, nil
}

// Add implements Index.
func (s *SQLiteIndex) Add(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wderrors.New(wderrors.ErrCodeIndexWrite, "index is closed", nil)
	}

	s.pending = append(s.pending, doc)
	if len(s.pending) >= s.batchSize {
		return s.flushLocked(ctx)
	}
	return nil
}

// WriteStats implements Index.
func (s *SQLiteIndex) WriteStats() WriteStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// flushLocked writes pending documents in one transaction. The pending
// buffer is cleared whether or not the write succeeds.
func (s *SQLiteIndex) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	docs := s.pending
	s.pending = make([]*Document, 0, s.batchSize)

	if err := s.writeBatch(ctx, docs); err != nil {
		s.written.Lost += uint64(len(docs))
		return wderrors.New(wderrors.ErrCodeIndexWrite,
			fmt.Sprintf("failed to write batch of %d documents", len(docs)), err)
	}
	s.written.Committed += uint64(len(docs))
	return nil
}

func (s *SQLiteIndex) writeBatch(ctx context.Context, docs []*Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages_fts(rowid, title, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err := stmt.ExecContext(ctx, int64(doc.ID), doc.Title, doc.Body); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", doc.ID, err)
		}
	}
	return tx.Commit()
}

// Search implements Index. Query words are quoted so FTS5 operators in user
// input are matched literally; any word may match.
func (s *SQLiteIndex) Search(ctx context.Context, queryStr string, limit int) ([]*SearchResult, error) {
	match := buildMatchExpr(queryStr)
	if match == "" {
		return nil, wderrors.New(wderrors.ErrCodeInvalidQuery, "query is empty", nil)
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, wderrors.New(wderrors.ErrCodeIndexNotFound, "index is closed", nil)
	}
	if err := s.flushLocked(ctx); err != nil {
		return nil, err
	}

	// bm25() is negative with lower meaning better; weights favour titles.
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, title, bm25(pages_fts, 2.0, 1.0) AS score
		FROM pages_fts
		WHERE pages_fts MATCH ?
		ORDER BY score
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, wderrors.New(wderrors.ErrCodeInvalidQuery, "search failed", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var (
			id    int64
			title string
			score float64
		)
		if err := rows.Scan(&id, &title, &score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, &SearchResult{
			ID:    DocumentID(id),
			Title: title,
			Score: -score,
		})
	}
	return results, rows.Err()
}

func buildMatchExpr(q string) string {
	fields := strings.Fields(q)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " OR ")
}

// Count implements Index.
func (s *SQLiteIndex) Count(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, wderrors.New(wderrors.ErrCodeIndexNotFound, "index is closed", nil)
	}
	if err := s.flushLocked(ctx); err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages_fts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return uint64(n), nil
}

// Close implements Index. Forces a WAL checkpoint before closing.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.flushLocked(context.Background())
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	closeErr := s.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

var _ Index = (*SQLiteIndex)(nil)
