package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/bridge-runtime/gen"
	"github.com/wippyai/bridge-runtime/metadata"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	symbolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateSelectExport browserState = iota
	stateShowDetail
	stateFilter
)

type browserModel struct {
	filename string
	registry *metadata.Registry
	visible  []metadata.Record
	filter   textinput.Model
	selected int
	state    browserState
}

func newBrowserModel(filename string, reg *metadata.Registry) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "filter exports"
	ti.Prompt = "/ "
	ti.Width = 40

	return &browserModel{
		filename: filename,
		registry: reg,
		visible:  reg.Records,
		filter:   ti,
		state:    stateSelectExport,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateFilter {
		switch key.String() {
		case "enter", "esc":
			m.state = stateSelectExport
			m.filter.Blur()
		case "ctrl+c":
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.state == stateSelectExport && m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.state == stateSelectExport && m.selected < len(m.visible)-1 {
			m.selected++
		}

	case "/":
		if m.state == stateSelectExport {
			m.state = stateFilter
			m.filter.Focus()
		}

	case "enter":
		if m.state == stateSelectExport && len(m.visible) > 0 {
			m.state = stateShowDetail
		}

	case "esc":
		switch m.state {
		case stateShowDetail:
			m.state = stateSelectExport
		case stateSelectExport:
			m.filter.SetValue("")
			m.applyFilter()
		}
	}

	return m, nil
}

func (m *browserModel) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	if needle == "" {
		m.visible = m.registry.Records
	} else {
		m.visible = nil
		for _, rec := range m.registry.Records {
			if strings.Contains(strings.ToLower(rec.QualifiedName()), needle) ||
				strings.Contains(strings.ToLower(rec.Symbol), needle) {
				m.visible = append(m.visible, rec)
			}
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bridge Exports"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateShowDetail:
		m.viewDetail(&b)

	default:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(errorStyle.Render("no exports match"))
			b.WriteString("\n")
		}
		for i, rec := range m.visible {
			line := formatRecord(rec)
			if i == m.selected && m.state == stateSelectExport {
				b.WriteString(selectedStyle.Render("> " + rec.QualifiedName()))
				b.WriteString(strings.TrimPrefix(line, exportStyle.Render(rec.QualifiedName())))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter detail • / filter • q quit"))
	}

	return b.String()
}

func (m *browserModel) viewDetail(b *strings.Builder) {
	rec := m.visible[m.selected]

	fmt.Fprintf(b, "%s\n\n", formatRecord(rec))
	fmt.Fprintf(b, "  symbol:  %s\n", symbolStyle.Render(rec.Symbol))
	if rec.Async {
		fmt.Fprintf(b, "  poll:    %s\n", symbolStyle.Render(rec.PollSymbol))
		fmt.Fprintf(b, "  release: %s\n", symbolStyle.Render(rec.ReleaseSymbol))
		if rec.Executor != "" {
			fmt.Fprintf(b, "  executor: %s\n", rec.Executor)
		}
	}
	if rec.Receiver != "" {
		fmt.Fprintf(b, "  receiver: %s\n", typeStyle.Render(rec.Receiver))
	}

	b.WriteString("\n  C declarations:\n")
	single := &metadata.Registry{Version: metadata.RegistryVersion, Records: []metadata.Record{rec}}
	var header strings.Builder
	if e, err := gen.Lookup("c-header"); err == nil {
		if err := e.Emit(&header, single); err == nil {
			for _, line := range strings.Split(header.String(), "\n") {
				if strings.HasPrefix(line, "extern ") {
					b.WriteString("    " + typeStyle.Render(line) + "\n")
				}
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("esc back • q quit"))
}

func runInteractive(filename string, reg *metadata.Registry) error {
	p := tea.NewProgram(newBrowserModel(filename, reg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
