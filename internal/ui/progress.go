// Package ui renders a live bubbletea progress view over a compiler.Event
// stream. Grounded on the teacher's (vovakirdan-surge) internal/ui/progress.go,
// adapted from its buildpipeline.Event/Stage/Status shape to the compiler
// package's Event/EventStatus and free-form stage-name strings.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"mosa/internal/compiler"
)

// stageWeight orders the fixed pipeline stages for progress-bar estimation;
// an unrecognized stage name (e.g. a future stage) falls back to 0.5 so it
// still moves the bar without needing this table kept in lockstep.
var stageWeight = map[string]float64{
	"decode":        0.1,
	"exceptions":    0.15,
	"ssa-construct": 0.2,
	"optimize":      0.35,
	"ssa-leave":     0.5,
	"lower":         0.6,
	"tweak":         0.65,
	"fixed-registers": 0.7,
	"regalloc":      0.8,
	"stack-layout":  0.9,
	"emit":          0.95,
}

type progressModel struct {
	title   string
	events  <-chan compiler.Event
	spinner spinner.Model
	prog    progress.Model
	items   []methodItem
	index   map[string]int
	width   int
	done    bool
}

type methodItem struct {
	symbol string
	status string
	stage  string
}

type eventMsg compiler.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model rendering per-method pipeline
// progress, one row per method plus an aggregate bar.
func NewProgressModel(title string, methods []string, events <-chan compiler.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]methodItem, 0, len(methods))
	index := make(map[string]int, len(methods))
	for i, sym := range methods {
		items = append(items, methodItem{symbol: sym, status: "queued"})
		index[sym] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.apply(compiler.Event(msg))
		return m, tea.Batch(cmd, m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		next, cmd := m.prog.Update(msg)
		m.prog = next.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	statusWidth := 12
	nameWidth := m.width - statusWidth - 4
	if nameWidth < 20 {
		nameWidth = 20
	}

	for _, item := range m.items {
		name := truncate(item.symbol, nameWidth)
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		b.WriteString(fmt.Sprintf("  %s %s\n", statusStyled, name))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev compiler.Event) tea.Cmd {
	idx, ok := m.index[ev.Method]
	if !ok {
		return nil
	}
	switch ev.Status {
	case compiler.StatusWorking:
		m.items[idx].status = ev.Stage
		m.items[idx].stage = ev.Stage
	case compiler.StatusDone:
		m.items[idx].status = "done"
	case compiler.StatusError:
		m.items[idx].status = "error"
	}

	total := 0.0
	for _, item := range m.items {
		switch item.status {
		case "done", "error":
			total += 1.0
		default:
			total += progressFromStage(item.stage)
		}
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func progressFromStage(stage string) float64 {
	if w, ok := stageWeight[stage]; ok {
		return w
	}
	return 0.5
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "queued":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
