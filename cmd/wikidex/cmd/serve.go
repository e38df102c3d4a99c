package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikidex/internal/mcp"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve <index-dir>",
		Short: "Serve an index to MCP clients",
		Long: `Start a Model Context Protocol server over stdio exposing two tools:
'search' (ranked page lookup) and 'index_status'.

stdout carries JSON-RPC only; logs go to ~/.wikidex/logs/ or logging.file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, flags, args[0], transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio")

	return cmd
}

func runServe(ctx context.Context, flags *rootFlags, dir, transport string) error {
	if transport != "stdio" {
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, cleanup := commandLogger(flags, cfg, nil, true)
	defer cleanup()

	if isatty.IsTerminal(os.Stdin.Fd()) {
		logger.Warn("stdin_is_terminal",
			slog.String("hint", "serve expects an MCP client on stdin; configure it in your client instead"))
	}

	idx, m, err := openIndex(dir)
	if err != nil {
		return err
	}

	srv, err := mcp.NewServer(idx, m, dir, logger)
	if err != nil {
		_ = idx.Close()
		return err
	}
	defer func() { _ = srv.Close() }()

	return srv.Serve(ctx, transport)
}
