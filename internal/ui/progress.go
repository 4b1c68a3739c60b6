package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Jet colour palette, cold to hot
var (
	jetNavy   = lipgloss.Color("#000080")
	jetBlue   = lipgloss.Color("#0055FF")
	jetCyan   = lipgloss.Color("#00D4FF")
	jetYellow = lipgloss.Color("#FFD500")
	jetRed    = lipgloss.Color("#FF2A00")
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseRunning Phase = iota
	PhaseComplete
	PhaseFailed
)

// StageStarted is sent when a pipeline stage begins
type StageStarted struct {
	Index int
	Name  string
}

// StageFinished is sent when a pipeline stage ends
type StageFinished struct {
	Index   int
	Name    string
	Elapsed time.Duration
}

// StageTiming is the duration of one stage for the summary
type StageTiming struct {
	Name     string
	Duration time.Duration
}

// Complete signals a successful run
type Complete struct {
	HeatmapPath string
	OverlayPath string
	GridH       int
	GridW       int
	Patches     int
	Dims        int
	Min         float64
	Max         float64
	Explained   float64 // Variance share of the first component
	FileSize    int64
	Heatmap     *image.RGBA
	Timings     []StageTiming
	TotalTime   time.Duration
}

// Failed signals that the run stopped with an error
type Failed struct {
	Err error
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

type stageState struct {
	name    string
	started bool
	done    bool
	elapsed time.Duration
}

// Model implements the Bubbletea model for a heatmap run
type Model struct {
	progressBar progress.Model
	summaryBar  progress.Model
	phase       Phase

	source string
	stages []stageState

	complete *Complete
	err      error

	startTime       time.Time
	stageStart      time.Time
	width           int
	noPreview       bool
	cachedPreview   string
	completionDelay time.Duration
}

// NewModel creates a progress model for the named stages
func NewModel(source string, stageNames []string, noPreview bool) *Model {
	// Jet gradient: blue → red
	p := progress.New(
		progress.WithGradient(string(jetBlue), string(jetRed)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	// Smaller progress bar for the timing breakdown
	summaryBar := progress.New(
		progress.WithGradient(string(jetBlue), string(jetRed)),
		progress.WithWidth(24),
		progress.WithoutPercentage(),
	)

	stages := make([]stageState, len(stageNames))
	for i, name := range stageNames {
		stages[i].name = name
	}

	return &Model{
		progressBar:     p,
		summaryBar:      summaryBar,
		phase:           PhaseRunning,
		source:          source,
		stages:          stages,
		startTime:       time.Now(),
		completionDelay: time.Second,
		noPreview:       noPreview,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(min(msg.Width-30, 50), 10)
		return m, nil

	case StageStarted:
		if msg.Index >= 0 && msg.Index < len(m.stages) {
			m.stages[msg.Index].started = true
			m.stageStart = time.Now()
		}
		return m, nil

	case StageFinished:
		if msg.Index >= 0 && msg.Index < len(m.stages) {
			m.stages[msg.Index].done = true
			m.stages[msg.Index].elapsed = msg.Elapsed
		}
		return m, nil

	case Complete:
		m.complete = &msg
		m.phase = PhaseComplete
		if !m.noPreview && msg.Heatmap != nil {
			m.cachedPreview = RenderPreview(DownsampleFrame(msg.Heatmap, DefaultPreviewConfig()))
		}
		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case Failed:
		m.err = msg.Err
		m.phase = PhaseFailed
		return m, tea.Quit

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.CompletionSummary()
	}
	return m.renderProgress()
}

// Err returns the error reported with Failed, if any.
func (m *Model) Err() error {
	return m.err
}

// CompletionSummary returns the final summary for printing after the program exits.
// Returns empty string if the run did not complete.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderStages(true) + "\n" + m.renderComplete()
}

func (m *Model) fraction() float64 {
	if len(m.stages) == 0 {
		return 0
	}
	done := 0
	for _, st := range m.stages {
		if st.done {
			done++
		}
	}
	return float64(done) / float64(len(m.stages))
}

func (m *Model) renderProgress() string {
	border := jetBlue
	if m.phase == PhaseFailed {
		border = jetRed
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Render(m.renderStagesBody(false))
}

func (m *Model) renderStages(final bool) string {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(jetCyan).
		Padding(1, 2).
		Render(m.renderStagesBody(final))
}

func (m *Model) renderStagesBody(final bool) string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(jetYellow).
		Render("patchmap")
	s.WriteString(title)
	s.WriteString("\n")
	if m.source != "" {
		s.WriteString(lipgloss.NewStyle().Foreground(jetCyan).Render(m.source))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	percent := m.fraction()
	if final {
		percent = 1
	}
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	doneStyle := lipgloss.NewStyle().Foreground(jetCyan)
	activeStyle := lipgloss.NewStyle().Bold(true).Foreground(jetYellow)
	pendingStyle := lipgloss.NewStyle().Faint(true)
	timeStyle := lipgloss.NewStyle().Faint(true)

	for i, st := range m.stages {
		switch {
		case st.done:
			s.WriteString(doneStyle.Render("✓ " + fmt.Sprintf("%-24s", st.name)))
			s.WriteString(timeStyle.Render(formatDuration(st.elapsed)))
		case st.started:
			s.WriteString(activeStyle.Render("› " + fmt.Sprintf("%-24s", st.name)))
			s.WriteString(timeStyle.Render(formatDuration(time.Since(m.stageStart))))
		default:
			s.WriteString(pendingStyle.Render("  " + st.name))
		}
		if i < len(m.stages)-1 {
			s.WriteString("\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n\n")
		s.WriteString(lipgloss.NewStyle().Foreground(jetRed).Render("✗ " + m.err.Error()))
	}

	return s.String()
}

func (m *Model) renderComplete() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(jetYellow).
		Render("✓ Heatmap Complete!")

	s.WriteString(title)
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)

	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Heatmap:   "), m.complete.HeatmapPath))
	if m.complete.OverlayPath != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Overlay:   "), m.complete.OverlayPath))
	}
	s.WriteString(fmt.Sprintf("%s%d×%d patches, %d-d descriptors\n",
		dimLabel.Render("Grid:      "), m.complete.GridH, m.complete.GridW, m.complete.Dims))
	s.WriteString(fmt.Sprintf("%s%.4g … %.4g\n", dimLabel.Render("Range:     "), m.complete.Min, m.complete.Max))
	s.WriteString(fmt.Sprintf("%s%.1f%% of variance\n", dimLabel.Render("PC1:       "), m.complete.Explained*100))
	if m.complete.FileSize > 0 {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Size:      "), formatBytes(m.complete.FileSize)))
	}
	s.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(jetCyan)
	labelStyle := lipgloss.NewStyle().Faint(true)
	valueStyle := lipgloss.NewStyle()
	highlightValueStyle := lipgloss.NewStyle().Foreground(jetYellow)

	s.WriteString(headerStyle.Render("Timing"))
	s.WriteString("\n")

	totalMs := m.complete.TotalTime.Milliseconds()
	if totalMs == 0 {
		totalMs = 1
	}
	for _, tm := range m.complete.Timings {
		ratio := float64(tm.Duration.Milliseconds()) / float64(totalMs)
		s.WriteString(fmt.Sprintf("  %s%s (~%2d%%)  %s\n",
			labelStyle.Render(fmt.Sprintf("%-24s", tm.Name+":")),
			valueStyle.Render(fmt.Sprintf("~%-6s", formatDuration(tm.Duration))),
			int(ratio*100),
			m.summaryBar.ViewAs(ratio)))
	}
	s.WriteString(fmt.Sprintf("  %s%s", labelStyle.Render(fmt.Sprintf("%-24s", "Total time:")), highlightValueStyle.Render(formatDuration(m.complete.TotalTime))))

	if m.cachedPreview != "" {
		s.WriteString("\n\n")
		s.WriteString(m.cachedPreview)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(jetNavy).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
