package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// TUIRenderer draws a live build dashboard with bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *buildModel
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. Fails when output is not a terminal.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	model := newBuildModel(cfg.Title)
	model.onInterrupt = cfg.OnInterrupt
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.send(progressMsg(event))
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.send(errorMsg(event))
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.send(completeMsg(stats))
}

func (r *TUIRenderer) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

// Stop implements Renderer. It waits briefly for the final frame.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	p, cancel := r.program, r.cancel
	r.mu.Unlock()

	if p == nil {
		return nil
	}

	select {
	case <-r.done:
	case <-time.After(500 * time.Millisecond):
		p.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	if cancel != nil {
		cancel()
	}
	return nil
}

type progressMsg ProgressEvent
type errorMsg ErrorEvent
type completeMsg CompletionStats
type tickMsg time.Time

// buildModel is the bubbletea model behind TUIRenderer.
type buildModel struct {
	title     string
	started   time.Time
	latest    ProgressEvent
	lastError string
	warnings  int
	errors    int
	width     int
	complete  bool
	quitting  bool
	stats     CompletionStats
	spinner   spinner.Model
	queueBar  progress.Model
	styles    Styles

	onInterrupt func()
}

func newBuildModel(title string) *buildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	bar := progress.New(
		progress.WithSolidFill(ColorLime),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	if title == "" {
		title = "wikidex build"
	}

	return &buildModel{
		title:    title,
		started:  time.Now(),
		width:    80,
		spinner:  s,
		queueBar: bar,
		styles:   DefaultStyles(),
	}
}

// Init implements tea.Model.
func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			if m.onInterrupt != nil {
				m.onInterrupt()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.queueBar.Width = max(20, msg.Width-30)

	case progressMsg:
		m.latest = ProgressEvent(msg)

	case errorMsg:
		if msg.IsWarn {
			m.warnings++
		} else {
			m.errors++
		}
		if msg.Err != nil {
			m.lastError = msg.Err.Error()
		}

	case completeMsg:
		m.complete = true
		m.stats = CompletionStats(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *buildModel) View() string {
	if m.quitting {
		return "Interrupted, stopping build...\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	e := m.latest
	elapsed := time.Since(m.started)

	lines := []string{
		m.styles.Header.Render(m.title),
		fmt.Sprintf("%s %s", m.spinner.View(), m.styles.Active.Render(e.Stage.String())),
		"",
		m.row("Extracted", humanize.Comma(e.Extracted)),
		m.row("Indexed", fmt.Sprintf("%s  (%s/s)", humanize.Comma(e.Indexed), formatRate(e.Indexed, elapsed))),
		m.row("Skipped", fmt.Sprintf("%s namespaced, %s short",
			humanize.Comma(e.Rejected), humanize.Comma(e.Short))),
		"",
		m.styles.Label.Render("Queue ") + m.queueBar.ViewAs(e.QueueFill()) +
			m.styles.Dim.Render(fmt.Sprintf(" %d/%d", e.QueueDepth, e.QueueCap)),
	}
	if e.LastTitle != "" {
		lines = append(lines, m.styles.Dim.Render(truncate(e.LastTitle, m.width-8)))
	}
	if m.warnings > 0 || m.errors > 0 {
		lines = append(lines, "", m.renderProblems())
	}

	return m.styles.Border.Width(max(40, m.width-4)).Render(strings.Join(lines, "\n")) + "\n"
}

func (m *buildModel) row(label, value string) string {
	return m.styles.Label.Render(fmt.Sprintf("%-10s", label)) + " " + m.styles.Value.Render(value)
}

func (m *buildModel) renderProblems() string {
	var parts []string
	if m.warnings > 0 {
		parts = append(parts, m.styles.Warning.Render(fmt.Sprintf("⚠ %d warnings", m.warnings)))
	}
	if m.errors > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("✗ %d errors", m.errors)))
	}
	out := strings.Join(parts, m.styles.Dim.Render("  │  "))
	if m.lastError != "" {
		out += "\n" + m.styles.Dim.Render(truncate(m.lastError, m.width-8))
	}
	return out
}

func (m *buildModel) renderComplete() string {
	s := m.stats
	lines := []string{
		m.styles.Success.Render("✓ Build complete"),
		"",
		m.row("Extracted", humanize.Comma(s.Extracted)),
		m.row("Indexed", humanize.Comma(s.Indexed)),
		m.row("Skipped", fmt.Sprintf("%s namespaced, %s short, %s duplicate, %s bad title",
			humanize.Comma(s.Rejected), humanize.Comma(s.Short),
			humanize.Comma(s.Duplicates), humanize.Comma(s.Invalid))),
		m.row("Duration", formatDuration(s.Duration)),
	}
	if s.Indexed > 0 {
		lines = append(lines, m.row("IDs", fmt.Sprintf("%d..%d", s.FirstID, s.LastID)))
	}
	if s.Failed > 0 {
		lines = append(lines, m.styles.Error.Render(fmt.Sprintf("✗ %s failed", humanize.Comma(s.Failed))))
	}
	if s.Truncated {
		lines = append(lines, m.styles.Warning.Render("stopped early at max_records"))
	}
	return m.styles.Border.Width(max(40, m.width-4)).Render(strings.Join(lines, "\n")) + "\n"
}

func formatRate(n int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "0"
	}
	return humanize.CommafWithDigits(float64(n)/elapsed.Seconds(), 1)
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var _ Renderer = (*TUIRenderer)(nil)
