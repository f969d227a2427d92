// internal/modes/plangen/plangen.go
//
// Plangen mode runs stage four of the wizard: optional enhancement notes are
// collected, the reasoning collaborator drafts a structured plan, the draft
// is previewed, and on confirmation the documents are written to disk. A
// parse failure shows the raw collaborator output with a retry affordance.

package plangen

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/groundwork/internal/modes"
	"github.com/kingrea/groundwork/internal/pipeline"
	"github.com/kingrea/groundwork/internal/plan"
)

// plangenPhase tracks which sub-view is active
type plangenPhase int

const (
	phaseNotes      plangenPhase = iota // optional enhancement notes
	phaseGenerating                     // draft call in flight
	phaseRawFailure                     // parse failure, raw payload shown
	phasePreview                        // drafted plan shown for review
	phaseDone                           // documents written
)

// Mode handles the plan generation and emission phase
type Mode struct {
	modes.BaseMode
	phase plangenPhase
	notes textarea.Model
	spin  spinner.Model
	view  viewport.Model

	state    pipeline.RunState
	emitted  []string
	errorMsg string
	width    int
	height   int
}

// New creates a new Plangen mode
func New() *Mode {
	notes := textarea.New()
	notes.Placeholder = "Optional: integration notes, constraints, priorities..."
	notes.CharLimit = 0
	notes.SetHeight(6)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Mode{
		BaseMode: modes.NewBaseMode("Plan Generation", pipeline.StageEmitted),
		notes:    notes,
		spin:     spin,
		view:     viewport.New(0, 0),
	}
}

// Init initializes the plangen mode
func (m *Mode) Init(ctx *modes.ModeContext) tea.Cmd {
	m.SetContext(ctx)
	m.state = ctx.State
	m.phase = phaseNotes
	m.SetStatusMsg("Add notes for the plan if you like, then press ctrl+d to generate")
	return m.notes.Focus()
}

// Update handles messages for the plangen mode
func (m *Mode) Update(msg tea.Msg) (modes.Mode, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := msg.Width - 6
		if inputWidth < 30 {
			inputWidth = 30
		}
		m.notes.SetWidth(inputWidth)
		viewHeight := msg.Height - 8
		if viewHeight < 5 {
			viewHeight = 5
		}
		m.view.Width = inputWidth
		m.view.Height = viewHeight
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		switch m.phase {
		case phaseNotes:
			if msg.String() == "ctrl+d" {
				return m.generate()
			}
		case phaseRawFailure:
			switch msg.String() {
			case "r":
				return m.generate()
			case "o":
				return m, func() tea.Msg { return modes.RestartRunMsg{} }
			}
		case phasePreview:
			switch msg.String() {
			case "e":
				return m.emit()
			case "g":
				m.phase = phaseNotes
				m.SetStatusMsg("Adjust the notes, then press ctrl+d to regenerate")
				return m, m.notes.Focus()
			case "o":
				return m, func() tea.Msg { return modes.RestartRunMsg{} }
			}
		case phaseDone:
			if msg.String() == "enter" {
				m.SetComplete(true)
				state := m.state
				return m, func() tea.Msg {
					return modes.ModeCompleteMsg{State: state}
				}
			}
		}

	case spinner.TickMsg:
		if m.phase == phaseGenerating {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case planDraftedMsg:
		m.errorMsg = ""
		m.state = msg.state
		if msg.result.Status == pipeline.StatusNeedsInput {
			m.phase = phaseNotes
			m.SetStatusMsg("The draft came back with no steps · adjust the notes and regenerate")
			m.logWarn("Drafted plan was empty")
			return m, m.notes.Focus()
		}
		m.view.SetContent(m.renderPreview())
		m.view.GotoTop()
		m.phase = phasePreview
		m.SetStatusMsg("e emit documents · g regenerate · o start over")
		m.logInfo("Plan drafted: %d steps", m.state.Plan.TotalSteps())
		return m, nil

	case planFailedMsg:
		m.errorMsg = ""
		m.state = msg.state
		if msg.state.RawPlanOutput != "" {
			m.view.SetContent(msg.state.RawPlanOutput)
			m.view.GotoTop()
			m.phase = phaseRawFailure
			m.SetStatusMsg("The response could not be parsed · r retry · o start over")
			m.logWarn("Plan generation parse failure")
			return m, nil
		}
		m.errorMsg = msg.err.Error()
		m.phase = phaseNotes
		m.SetStatusMsg("Generation failed; press ctrl+d to retry")
		return m, m.notes.Focus()

	case planEmittedMsg:
		m.errorMsg = ""
		m.state = msg.state
		m.emitted = msg.files
		m.phase = phaseDone
		m.SetStatusMsg("Documents written · Enter to finish")
		m.logInfo("Emitted %d documents", len(msg.files))
		return m, nil

	case emitFailedMsg:
		m.errorMsg = msg.err.Error()
		m.phase = phasePreview
		m.SetStatusMsg("Emission failed · e to retry")
		return m, nil
	}

	var cmd tea.Cmd
	switch m.phase {
	case phaseNotes:
		m.notes, cmd = m.notes.Update(msg)
	case phaseRawFailure, phasePreview:
		m.view, cmd = m.view.Update(msg)
	}
	return m, cmd
}

// View renders the plangen mode
func (m *Mode) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#BD93F9")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1)

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555"))

	header := titleStyle.Render("◆ PLAN GENERATION")
	var body string

	switch m.phase {
	case phaseNotes:
		body = fmt.Sprintf("Enhancement notes (optional):\n\n%s\n\n%s",
			m.notes.View(),
			hintStyle.Render("ctrl+d generate"))

	case phaseGenerating:
		body = fmt.Sprintf("%s Drafting the implementation plan...", m.spin.View())

	case phaseRawFailure:
		notice := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1).
			Render("The collaborator's response could not be parsed. Raw output:")
		body = fmt.Sprintf("%s\n\n%s\n\n%s", notice, m.view.View(),
			hintStyle.Render("r retry · o start over"))

	case phasePreview:
		body = fmt.Sprintf("%s\n\n%s", m.view.View(),
			hintStyle.Render("e emit · g regenerate · o start over"))

	case phaseDone:
		body = m.renderEmitted()
	}

	if m.errorMsg != "" {
		errBlock := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1).
			Render(fmt.Sprintf("⚠ %s", m.errorMsg))
		body = fmt.Sprintf("%s\n\n%s", body, errBlock)
	}

	return fmt.Sprintf("%s\n%s\n%s", header, body, statusStyle.Render(m.StatusMsg()))
}

// renderPreview summarizes the drafted plan for review before emission
func (m *Mode) renderPreview() string {
	sectionTitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77")).
		Bold(true)

	var b strings.Builder
	b.WriteString(sectionTitle.Render("Enhancement Strategy"))
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(m.state.Plan.Enhancement))
	b.WriteString("\n\n")
	for _, phase := range m.state.Plan.Phases {
		b.WriteString(sectionTitle.Render("Phase: " + phase.Title))
		b.WriteString("\n")
		for _, step := range phase.Steps {
			fmt.Fprintf(&b, "  · %s (%d tasks)\n", step.Title, len(step.Tasks))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Mode) renderEmitted() string {
	doneStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77")).
		Bold(true)
	var b strings.Builder
	b.WriteString(doneStyle.Render("✓ Plan emitted"))
	b.WriteString("\n\n")
	for _, file := range m.emitted {
		fmt.Fprintf(&b, "  %s\n", file)
	}
	return b.String()
}

// Message types
type planDraftedMsg struct {
	state  pipeline.RunState
	result pipeline.Result
}

type planFailedMsg struct {
	state pipeline.RunState
	err   error
}

type planEmittedMsg struct {
	state pipeline.RunState
	files []string
}

type emitFailedMsg struct {
	err error
}

// generate drafts the plan with the current notes
func (m *Mode) generate() (modes.Mode, tea.Cmd) {
	m.errorMsg = ""
	m.phase = phaseGenerating
	m.SetStatusMsg("Generating...")
	state := m.state
	notes := strings.TrimSpace(m.notes.Value())
	call := func() tea.Msg {
		ctx := m.Context()
		next, result, err := ctx.Pipeline.Generate(context.Background(), state, notes)
		if err != nil {
			return planFailedMsg{state: next, err: err}
		}
		return planDraftedMsg{state: next, result: result}
	}
	return m, tea.Batch(m.spin.Tick, call)
}

// emit writes the aggregate document and the per-step documents
func (m *Mode) emit() (modes.Mode, tea.Cmd) {
	m.SetStatusMsg("Writing documents...")
	state := m.state
	return m, func() tea.Msg {
		ctx := m.Context()
		next, _, err := ctx.Pipeline.Emit(state)
		if err != nil {
			return emitFailedMsg{err: err}
		}
		files := []string{ctx.Workspace.PlanDocPath()}
		for _, ns := range next.Plan.NumberedSteps() {
			files = append(files, ctx.Workspace.StepDocPath(plan.StepFileName(ns.Index, ns.Step.Title)))
		}
		return planEmittedMsg{state: next, files: files}
	}
}

func (m *Mode) logInfo(format string, args ...any) {
	ctx := m.Context()
	if ctx == nil || ctx.Logbook == nil {
		return
	}
	ctx.Logbook.Info(format, args...)
}

func (m *Mode) logWarn(format string, args ...any) {
	ctx := m.Context()
	if ctx == nil || ctx.Logbook == nil {
		return
	}
	ctx.Logbook.Warn(format, args...)
}
