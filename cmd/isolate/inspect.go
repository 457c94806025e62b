package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/term"

	artifactruntime "github.com/wippyai/artifact-runtime"
	"github.com/wippyai/artifact-runtime/deploy"
	"github.com/wippyai/artifact-runtime/region"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Browse deployed artifacts and resolve names interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := newRuntime()
		defer rt.Close(context.Background())

		if !term.IsTerminal(int(os.Stdout.Fd())) {
			for _, e := range multierr.Errors(rt.DeployAll(cmd.Context())) {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			printArtifacts(cmd.OutOrStdout(), rt)
			return nil
		}
		p := tea.NewProgram(newInspectModel(cmd.Context(), rt), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

type modelState int

const (
	stateList modelState = iota
	stateDetail
	stateInput
	stateResult
)

type inspectModel struct {
	ctx      context.Context
	err      error
	rt       *artifactruntime.Runtime
	failures []error
	rows     []artifactRow
	result   string
	input    textinput.Model
	selected int
	state    modelState
	symbol   bool
	loaded   bool
}

func newInspectModel(ctx context.Context, rt *artifactruntime.Runtime) *inspectModel {
	return &inspectModel{ctx: ctx, rt: rt, state: stateList}
}

type loadedMsg struct {
	err  error
	rows []artifactRow
}

type resolvedMsg struct {
	err    error
	result string
}

func (m *inspectModel) Init() tea.Cmd {
	return m.deployAll
}

func (m *inspectModel) deployAll() tea.Msg {
	err := m.rt.DeployAll(m.ctx)
	return loadedMsg{err: err, rows: artifactRows(m.rt)}
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateInput {
			switch msg.String() {
			case "enter":
				return m, m.resolve
			case "esc":
				m.state = stateDetail
				return m, nil
			case "ctrl+c":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateList && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateList && m.selected < len(m.rows)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateList:
				if len(m.rows) > 0 {
					m.state = stateDetail
				}
			case stateResult:
				m.state = stateDetail
				m.result = ""
				m.err = nil
			}

		case "r", "s":
			if m.state == stateDetail {
				m.symbol = msg.String() == "s"
				m.prepareInput()
				m.state = stateInput
				return m, textinput.Blink
			}

		case "esc":
			switch m.state {
			case stateDetail:
				m.state = stateList
			case stateResult:
				m.state = stateDetail
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		m.loaded = true
		m.rows = msg.rows
		m.failures = multierr.Errors(msg.err)

	case resolvedMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateResult
	}
	return m, nil
}

func (m *inspectModel) prepareInput() {
	ti := textinput.New()
	ti.Width = 60
	if m.symbol {
		ti.Prompt = "symbol: "
		ti.Placeholder = "com.acme.shared.Greeter"
	} else {
		ti.Prompt = "resource: "
		ti.Placeholder = "com/acme/shared/config.yaml"
	}
	ti.Focus()
	m.input = ti
}

func (m *inspectModel) resolve() tea.Msg {
	row := m.rows[m.selected]
	out, err := resolve(m.ctx, m.rt, row.name, strings.TrimSpace(m.input.Value()), m.symbol)
	return resolvedMsg{result: out, err: err}
}

func (m *inspectModel) View() string {
	if !m.loaded {
		return "Deploying artifacts..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Artifact Inspector"))
	b.WriteString(" ")
	b.WriteString(cfg.Root)
	b.WriteString("\n\n")

	switch m.state {
	case stateList:
		if len(m.rows) == 0 {
			b.WriteString("Nothing deployed.\n")
		}
		for i, r := range m.rows {
			line := fmt.Sprintf("%-24s %-12s %-10s %s", r.name, r.kind, r.state, dash(r.domain))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		for _, err := range m.failures {
			b.WriteString(errorStyle.Render(err.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • q quit"))

	case stateDetail:
		b.WriteString(m.detail())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("r resolve resource • s load symbol • esc back • q quit"))

	case stateInput:
		fmt.Fprintf(&b, "Resolve in %s\n\n", nameStyle.Render(m.rows[m.selected].name))
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter resolve • esc back"))

	case stateResult:
		fmt.Fprintf(&b, "Result in %s:\n\n", nameStyle.Render(m.rows[m.selected].name))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}
	return b.String()
}

// detail describes the selected artifact's region.
func (m *inspectModel) detail() string {
	row := m.rows[m.selected]
	var b strings.Builder
	field := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), value)
	}

	field("name", nameStyle.Render(row.name))
	field("kind", row.kind)
	field("state", row.state.String())

	svc := m.rt.Service()
	var rg *region.Region
	if row.kind == "domain" {
		if d, ok := svc.Domain(row.name); ok {
			rg = d.Region()
			if ns := d.Exports().Namespaces(); len(ns) > 0 {
				field("exports", strings.Join(ns, ", "))
			}
		}
	} else if a, ok := svc.Application(row.name); ok {
		rg = a.Region()
		field("domain", a.DomainName())
		if a.State() == deploy.Created && a.PriorState() != deploy.Created {
			field("prior state", a.PriorState().String())
		}
	}
	if rg == nil {
		field("region", errorStyle.Render("none"))
		return b.String()
	}

	p := rg.Primary()
	field("region", rg.ID().String())
	field("search path", strings.Join(p.SearchPath(), ", "))
	field("companions", fmt.Sprint(p.CompanionCount()))
	for _, c := range rg.Children() {
		field("plugin", fmt.Sprintf("%s [%s]", c.Unit.ID(), strings.Join(c.Filter.Namespaces(), ", ")))
	}
	return b.String()
}
