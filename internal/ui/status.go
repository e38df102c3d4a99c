package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// IndexInfo describes a built index for 'wikidex info'.
type IndexInfo struct {
	Dir       string    `json:"dir"`
	Backend   string    `json:"backend"`
	Language  string    `json:"language"`
	Encoding  string    `json:"encoding"`
	Dump      string    `json:"dump"`
	Documents uint64    `json:"documents"`
	FirstID   uint64    `json:"first_id"`
	LastID    uint64    `json:"last_id"`
	Builds    int       `json:"builds"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusRenderer displays index information.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render writes a human-readable summary.
func (r *StatusRenderer) Render(info IndexInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index: "+info.Dir))

	_, _ = fmt.Fprintf(r.out, "  Backend:   %s\n", info.Backend)
	_, _ = fmt.Fprintf(r.out, "  Language:  %s\n", info.Language)
	_, _ = fmt.Fprintf(r.out, "  Encoding:  %s\n", info.Encoding)
	if info.Dump != "" {
		_, _ = fmt.Fprintf(r.out, "  Dump:      %s\n", info.Dump)
	}
	_, _ = fmt.Fprintf(r.out, "  Documents: %s\n", humanize.Comma(int64(info.Documents)))
	if info.LastID > 0 {
		_, _ = fmt.Fprintf(r.out, "  IDs:       %d..%d\n", info.FirstID, info.LastID)
	}
	_, _ = fmt.Fprintf(r.out, "  Builds:    %d\n", info.Builds)
	_, _ = fmt.Fprintf(r.out, "  Size:      %s\n", humanize.IBytes(uint64(max(info.SizeBytes, 0))))
	if !info.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Updated:   %s\n", humanize.Time(info.UpdatedAt))
	}
	return nil
}

// RenderJSON outputs info as indented JSON.
func (r *StatusRenderer) RenderJSON(info IndexInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}
