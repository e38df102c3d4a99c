// Package cmd provides the CLI commands for wikidex.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikidex/internal/config"
	"github.com/Aman-CERP/wikidex/internal/logging"
	"github.com/Aman-CERP/wikidex/internal/profiling"
	"github.com/Aman-CERP/wikidex/pkg/version"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	debug      bool
	configPath string
	profile    profiling.Options
}

// NewRootCmd creates the root command for the wikidex CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var (
		loggingCleanup func()
		profiler       *profiling.Session
	)

	cmd := &cobra.Command{
		Use:   "wikidex",
		Short: "Build full-text indexes from MediaWiki XML dumps",
		Long: `wikidex streams a MediaWiki XML dump, drops namespaced and short pages,
and feeds the rest to a pool of workers that assign contiguous document ids
and write a Bleve or SQLite FTS5 index.

  wikidex build en enwiki-latest-pages-articles.xml.bz2 out/
  wikidex search out/ "volcanic eruption"
  wikidex serve out/`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("wikidex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging to ~/.wikidex/logs/")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a config file (default .wikidex.yaml)")
	cmd.PersistentFlags().StringVar(&flags.profile.CPUPath, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&flags.profile.HeapPath, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&flags.profile.TracePath, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		if flags.debug {
			logger, cleanup, err := logging.Setup(logging.DebugConfig())
			if err != nil {
				return fmt.Errorf("failed to setup debug logging: %w", err)
			}
			loggingCleanup = cleanup
			slog.SetDefault(logger)
			slog.Debug("debug_logging_enabled", slog.String("log_file", logging.DefaultLogPath()))
		}
		if flags.profile.Enabled() {
			session, err := profiling.Start(flags.profile)
			if err != nil {
				return err
			}
			profiler = session
		}
		return nil
	}
	cmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		err := profiler.Stop()
		profiler = nil
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
		return err
	}

	cmd.AddCommand(newBuildCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newInfoCmd())
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig layers defaults, user config, the project file or --config,
// and WIKIDEX_* env overrides. Callers apply flags and then Validate.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	return config.Load(".", flags.configPath)
}

// commandLogger returns the logger a command should use. With --debug the
// default logger is already configured. Otherwise cfg decides: a log file
// if one is set, else console output on stderr. fileOnly commands (the TUI,
// the MCP server) never write log lines to the console and fall back to
// the default log file instead.
func commandLogger(flags *rootFlags, cfg *config.Config, stderr io.Writer, fileOnly bool) (*slog.Logger, func()) {
	if flags.debug {
		return slog.Default(), func() {}
	}

	logCfg := logging.Config{
		Level:         strings.ToLower(cfg.Logging.Level),
		FilePath:      cfg.Logging.File,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: !fileOnly,
		Stderr:        stderr,
	}
	if fileOnly && logCfg.FilePath == "" {
		logCfg.FilePath = logging.DefaultLogPath()
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging is not critical for the CLI.
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	return logger, cleanup
}
