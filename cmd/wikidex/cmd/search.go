package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
	"github.com/Aman-CERP/wikidex/internal/store"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

// searchHit is the JSON shape of one result.
type searchHit struct {
	ID    uint64  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <index-dir> <query>",
		Short: "Search a built index",
		Long: `Run a ranked full-text query against an index built by 'wikidex build'.
Titles weigh more than bodies.

Examples:
  wikidex search out/ "volcanic eruption"
  wikidex search out/ glacier --limit 5 --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args[1:], " ")
			return runSearch(cmd.Context(), cmd, flags, args[0], query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, flags *rootFlags, dir, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return wderrors.New(wderrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown format %q (valid options: text, json)", opts.format), nil)
	}
	if opts.limit <= 0 {
		return wderrors.New(wderrors.ErrCodeConfigInvalid, "--limit must be positive", nil)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, cleanup := commandLogger(flags, cfg, cmd.ErrOrStderr(), false)
	defer cleanup()

	idx, _, err := openIndex(dir)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	start := time.Now()
	results, err := idx.Search(ctx, query, opts.limit)
	if err != nil {
		return err
	}
	logger.Debug("search_complete",
		slog.String("query", query),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		hits := make([]searchHit, 0, len(results))
		for _, r := range results {
			hits = append(hits, searchHit{ID: uint64(r.ID), Title: r.Title, Score: r.Score})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	printResults(cmd, query, results)
	return nil
}

func printResults(cmd *cobra.Command, query string, results []*store.SearchResult) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, _ = fmt.Fprintf(out, "No pages found for %q\n", query)
		return
	}
	for i, r := range results {
		_, _ = fmt.Fprintf(out, "%2d. %s (id %d, score %.3f)\n", i+1, r.Title, r.ID, r.Score)
	}
}
