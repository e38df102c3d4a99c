package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikidex/internal/config"
	"github.com/Aman-CERP/wikidex/internal/dump"
	wderrors "github.com/Aman-CERP/wikidex/internal/errors"
	"github.com/Aman-CERP/wikidex/internal/pipeline"
	"github.com/Aman-CERP/wikidex/internal/store"
	"github.com/Aman-CERP/wikidex/internal/ui"
)

const buildUsage = "wikidex build <language> <dump> <output-dir> [encoding]"

// buildOptions holds CLI flags for build.
type buildOptions struct {
	workers       int
	queueCapacity int
	minBodyLength int
	maxRecords    int
	dedupeWindow  int
	backend       string
	appendMode    bool
	force         bool
	plain         bool
	noColor       bool
}

// buildRequest is a fully resolved build.
type buildRequest struct {
	language string
	dumpPath string
	outDir   string
	cfg      *config.Config
	opts     buildOptions
}

func newBuildCmd(flags *rootFlags) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build <language> <dump> <output-dir> [encoding]",
		Short: "Build an index from a MediaWiki XML dump",
		Long: `Stream a MediaWiki XML dump (.xml, .xml.bz2 or .xml.gz) into a full-text index.

Pages whose title carries a namespace prefix ("Talk:", "Category:") are
skipped, as are bodies shorter than min_body_length characters. Accepted
pages get contiguous ids starting at 1, or after the previous build's last
id with --append.

The encoding is the charset the dump declares; it defaults to ISO-8859-1.

Examples:
  wikidex build en enwiki-latest-pages-articles.xml.bz2 out/
  wikidex build it itwiki.xml.gz out/ UTF-8 --backend sqlite
  wikidex build en enwiki-part2.xml.bz2 out/ --append`,
		// Argument errors are reported as ERR_102 below, before anything is opened.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				return wderrors.New(wderrors.ErrCodeMissingArgument,
					fmt.Sprintf("build needs a language, a dump and an output directory, got %d argument(s)", len(args)), nil).
					WithSuggestion("usage: " + buildUsage)
			}
			if len(args) > 4 {
				return wderrors.New(wderrors.ErrCodeConfigInvalid,
					fmt.Sprintf("build takes at most 4 arguments, got %d", len(args)), nil).
					WithSuggestion("usage: " + buildUsage)
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			cfg.Build.Language = args[0]
			if len(args) == 4 {
				cfg.Build.Encoding = args[3]
			}
			applyBuildFlags(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if opts.appendMode && opts.force {
				return wderrors.New(wderrors.ErrCodeConfigInvalid, "--append and --force are mutually exclusive", nil)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runBuild(ctx, cmd, flags, buildRequest{
				language: args[0],
				dumpPath: args[1],
				outDir:   args[2],
				cfg:      cfg,
				opts:     opts,
			})
		},
	}

	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of index workers (default 3)")
	cmd.Flags().IntVar(&opts.queueCapacity, "queue-capacity", 0, "Records buffered between reader and workers (default 1000)")
	cmd.Flags().IntVar(&opts.minBodyLength, "min-body-length", 0, "Minimum body length in characters (default 4000)")
	cmd.Flags().IntVar(&opts.maxRecords, "max-records", 0, "Stop after this many accepted records (0 = no limit)")
	cmd.Flags().IntVar(&opts.dedupeWindow, "dedupe-window", 0, "Skip titles seen among the last N records (0 = off)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Index backend: bleve (default) or sqlite")
	cmd.Flags().BoolVar(&opts.appendMode, "append", false, "Add to an existing index, continuing its ids")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Delete an existing index and rebuild")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable the interactive dashboard")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// applyBuildFlags overrides cfg with the flags the user actually set.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, opts buildOptions) {
	changed := cmd.Flags().Changed
	if changed("workers") {
		cfg.Build.Workers = opts.workers
	}
	if changed("queue-capacity") {
		cfg.Build.QueueCapacity = opts.queueCapacity
	}
	if changed("min-body-length") {
		cfg.Build.MinBodyLength = opts.minBodyLength
	}
	if changed("max-records") {
		cfg.Build.MaxRecords = opts.maxRecords
	}
	if changed("dedupe-window") {
		cfg.Build.DedupeWindow = opts.dedupeWindow
	}
	if changed("backend") {
		cfg.Index.Backend = strings.ToLower(opts.backend)
	}
}

func runBuild(ctx context.Context, cmd *cobra.Command, flags *rootFlags, req buildRequest) error {
	cfg := req.cfg
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	uiCfg := ui.NewConfig(out,
		ui.WithForcePlain(req.opts.plain),
		ui.WithNoColor(req.opts.noColor),
		ui.WithTitle(filepath.Base(req.dumpPath)),
		ui.WithOnInterrupt(cancel))
	interactive := !req.opts.plain && ui.IsTTY(out) && !ui.DetectCI()

	logger, cleanup := commandLogger(flags, cfg, cmd.ErrOrStderr(), interactive)
	defer cleanup()

	if !store.IsSupportedLanguage(req.language) {
		logger.Warn("language_without_analyzer",
			slog.String("language", req.language),
			slog.String("supported", strings.Join(store.SupportedLanguages, ",")))
	}

	lock, err := store.AcquireOutputLock(req.outDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	prev, idBase, err := prepareOutput(req, logger)
	if err != nil {
		return err
	}

	backend := cfg.Index.Backend
	if prev != nil {
		backend = prev.Backend
	}
	storeOpts := store.Options{
		Dir:       req.outDir,
		Language:  req.language,
		Backend:   backend,
		BatchSize: cfg.Index.BatchSize,
	}

	src, err := dump.Open(req.dumpPath, cfg.Build.Encoding)
	if err != nil {
		return err
	}

	var idx store.Index
	if prev != nil {
		idx, err = store.Open(storeOpts)
	} else {
		idx, err = store.Create(storeOpts)
	}
	if err != nil {
		_ = src.Close()
		return err
	}

	renderer := ui.NewRenderer(uiCfg)
	if err := renderer.Start(ctx); err != nil {
		logger.Warn("renderer_start_failed", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	builder, err := pipeline.NewBuilder(pipeline.BuilderDependencies{
		Source:   src,
		Index:    idx,
		Renderer: renderer,
		Logger:   logger,
	}, pipeline.Options{
		Workers:          cfg.Build.Workers,
		QueueCapacity:    cfg.Build.QueueCapacity,
		MinBodyLength:    cfg.Build.MinBodyLength,
		MaxRecords:       cfg.Build.MaxRecords,
		DedupeWindow:     cfg.Build.DedupeWindow,
		Encoding:         cfg.Build.Encoding,
		IDBase:           idBase,
		ProgressInterval: cfg.Build.ProgressInterval,
	})
	if err != nil {
		_ = idx.Close()
		_ = src.Close()
		return err
	}

	logger.Info("build_requested",
		slog.String("dump", req.dumpPath),
		slog.String("output", req.outDir),
		slog.String("language", req.language),
		slog.String("backend", storeOpts.Backend),
		slog.Bool("append", prev != nil))

	res, runErr := builder.Run(ctx)

	m := nextManifest(prev, req, storeOpts.Backend, res)
	if err := store.WriteManifest(req.outDir, m); err != nil {
		logger.Error("manifest_write_failed", slog.String("error", err.Error()))
		if runErr == nil {
			return err
		}
	}
	return runErr
}

// prepareOutput handles an index already present in the output directory.
// It returns the previous manifest when appending, and the first id to use.
func prepareOutput(req buildRequest, logger *slog.Logger) (*store.Manifest, store.DocumentID, error) {
	base := store.DocumentID(req.cfg.Build.IDBase)
	if !store.Exists(req.outDir) {
		if req.opts.appendMode {
			logger.Info("append_without_index", slog.String("output", req.outDir))
		}
		return nil, base, nil
	}

	switch {
	case req.opts.force:
		logger.Info("index_force_clear", slog.String("output", req.outDir))
		if err := store.Remove(req.outDir); err != nil {
			return nil, 0, wderrors.New(wderrors.ErrCodeIndexInit, "failed to clear existing index", err)
		}
		return nil, base, nil

	case req.opts.appendMode:
		prev, err := store.ReadManifest(req.outDir)
		if err != nil {
			return nil, 0, err
		}
		if prev.Language != "" && !strings.EqualFold(prev.Language, req.language) {
			return nil, 0, wderrors.New(wderrors.ErrCodeConfigInvalid,
				fmt.Sprintf("cannot append %s pages to a %s index", req.language, prev.Language), nil)
		}
		next := prev.NextID()
		if base > next {
			next = base
		}
		return prev, next, nil

	default:
		return nil, 0, wderrors.New(wderrors.ErrCodeIndexExists,
			fmt.Sprintf("index already exists at %s", req.outDir), nil).
			WithSuggestion("pass --force to rebuild or --append to continue")
	}
}

// nextManifest folds one build's result into the previous manifest.
func nextManifest(prev *store.Manifest, req buildRequest, backend string, res *pipeline.Result) *store.Manifest {
	now := time.Now().UTC()
	m := &store.Manifest{
		Version:   1,
		Backend:   backend,
		Language:  req.language,
		CreatedAt: now,
	}
	if prev != nil {
		*m = *prev
	}
	m.Encoding = req.cfg.Build.Encoding
	m.Dump = req.dumpPath
	m.Builds++
	m.UpdatedAt = now

	if res != nil && res.Indexed > 0 {
		m.Documents += uint64(res.Indexed)
	}
	if res != nil && res.LastID > 0 {
		if m.FirstID == 0 {
			m.FirstID = res.FirstID
		}
		m.LastID = res.LastID
	}
	return m
}
