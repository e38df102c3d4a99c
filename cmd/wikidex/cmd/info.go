package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/wikidex/internal/ui"
)

func newInfoCmd() *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "info <index-dir>",
		Short: "Show what a built index contains",
		Long: `Display the backend, language, document count, id range and on-disk size
of an index built by 'wikidex build'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd, args[0], jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runInfo(cmd *cobra.Command, dir string, jsonOutput, noColor bool) error {
	idx, m, err := openIndex(dir)
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	count, err := idx.Count(cmd.Context())
	if err != nil {
		return err
	}

	info := ui.IndexInfo{
		Dir:       dir,
		Documents: count,
		SizeBytes: dirSize(dir),
	}
	if m != nil {
		info.Backend = m.Backend
		info.Language = m.Language
		info.Encoding = m.Encoding
		info.Dump = m.Dump
		info.FirstID = uint64(m.FirstID)
		info.LastID = uint64(m.LastID)
		info.Builds = m.Builds
		info.CreatedAt = m.CreatedAt
		info.UpdatedAt = m.UpdatedAt
	}

	r := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
	if jsonOutput {
		return r.RenderJSON(info)
	}
	return r.Render(info)
}
