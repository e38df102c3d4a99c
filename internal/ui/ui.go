// Package ui renders build progress: a bubbletea dashboard on terminals and
// line-oriented text everywhere else.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage represents a build stage.
type Stage int

const (
	// StageExtracting means the producer is still reading the dump.
	StageExtracting Stage = iota
	// StageDraining means extraction ended and workers are finishing the queue.
	StageDraining
	// StageComplete indicates the build finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageExtracting:
		return "Extracting"
	case StageDraining:
		return "Draining"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageExtracting:
		return "EXTRACT"
	case StageDraining:
		return "DRAIN"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent is a snapshot of pipeline counters.
type ProgressEvent struct {
	Stage      Stage
	Extracted  int64
	Indexed    int64
	Rejected   int64
	Short      int64
	Failed     int64
	QueueDepth int
	QueueCap   int
	LastTitle  string
	Message    string
}

// QueueFill returns queue depth as a fraction of capacity.
func (e ProgressEvent) QueueFill() float64 {
	if e.QueueCap <= 0 {
		return 0
	}
	return float64(e.QueueDepth) / float64(e.QueueCap)
}

// ErrorEvent represents a per-record problem during a build.
type ErrorEvent struct {
	Title  string
	Err    error
	IsWarn bool
}

// CompletionStats contains the final build counters.
type CompletionStats struct {
	Extracted  int64
	Rejected   int64
	Duplicates int64
	Invalid    int64
	Indexed    int64
	Short      int64
	Failed     int64
	FirstID    uint64
	LastID     uint64
	Truncated  bool
	Duration   time.Duration
}

// Renderer defines the interface for progress display.
// Implementations are safe for concurrent use.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress updates progress display.
	UpdateProgress(event ProgressEvent)

	// AddError adds an error to display.
	AddError(event ErrorEvent)

	// Complete marks rendering as complete with summary.
	Complete(stats CompletionStats)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// Title is shown in the dashboard header, usually the dump file name.
	Title string
	// OnInterrupt is called when the user presses ctrl+c in the dashboard.
	// The terminal is in raw mode there, so no SIGINT reaches the process.
	OnInterrupt func()
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithTitle sets the dashboard header.
func WithTitle(title string) ConfigOption {
	return func(c *Config) {
		c.Title = title
	}
}

// WithOnInterrupt sets the function the dashboard calls on ctrl+c.
func WithOnInterrupt(fn func()) ConfigOption {
	return func(c *Config) {
		c.OnInterrupt = fn
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// renderer for CI, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
