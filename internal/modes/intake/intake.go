// internal/modes/intake/intake.go
//
// Intake mode runs stage one of the wizard: the user types a project idea,
// the reasoning collaborator rates its clarity, and a question loop runs
// until the idea is clear enough (or the user skips, or the round cap hits).
// Output: a confirmed summary on the run state.

package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/groundwork/internal/modes"
	"github.com/kingrea/groundwork/internal/pipeline"
)

// intakePhase tracks which sub-view is active
type intakePhase int

const (
	phaseIdea       intakePhase = iota // textarea for the initial idea
	phaseWaiting                       // collaborator call in flight
	phaseClarify                       // questions shown, answer input focused
	phaseSummary                       // confirmed summary shown for review
	phaseRawFailure                    // parse failure, raw payload shown
)

// Mode handles the idea intake and clarification phase
type Mode struct {
	modes.BaseMode
	phase  intakePhase
	idea   textarea.Model
	answer textinput.Model
	spin   spinner.Model
	raw    viewport.Model

	state    pipeline.RunState
	errorMsg string
	width    int
	height   int
}

// New creates a new Intake mode
func New() *Mode {
	idea := textarea.New()
	idea.Placeholder = "Describe the project you want to build..."
	idea.CharLimit = 0
	idea.SetHeight(8)

	answer := textinput.New()
	answer.Placeholder = "Your answer..."
	answer.CharLimit = 0

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Mode{
		BaseMode: modes.NewBaseMode("Idea Intake", pipeline.StageClarified),
		phase:    phaseIdea,
		idea:     idea,
		answer:   answer,
		spin:     spin,
		raw:      viewport.New(0, 0),
	}
}

// Init initializes the intake mode
func (m *Mode) Init(ctx *modes.ModeContext) tea.Cmd {
	m.SetContext(ctx)
	m.state = ctx.State
	m.SetStatusMsg("Describe your idea, then press ctrl+d to submit")
	return m.idea.Focus()
}

// Update handles messages for the intake mode
func (m *Mode) Update(msg tea.Msg) (modes.Mode, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := msg.Width - 6
		if inputWidth < 30 {
			inputWidth = 30
		}
		m.idea.SetWidth(inputWidth)
		m.answer.Width = inputWidth
		rawHeight := msg.Height - 10
		if rawHeight < 5 {
			rawHeight = 5
		}
		m.raw.Width = inputWidth
		m.raw.Height = rawHeight
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		switch m.phase {
		case phaseIdea:
			if msg.String() == "ctrl+d" {
				return m.submitIdea()
			}
		case phaseClarify:
			switch msg.String() {
			case "enter":
				return m.submitAnswer()
			case "ctrl+s":
				return m.skipClarification()
			}
		case phaseSummary:
			if msg.String() == "enter" {
				m.SetComplete(true)
				m.SetStatusMsg("Summary confirmed")
				state := m.state
				return m, func() tea.Msg {
					return modes.ModeCompleteMsg{State: state}
				}
			}
		case phaseRawFailure:
			if msg.String() == "enter" {
				return m.returnToInput()
			}
		}

	case spinner.TickMsg:
		if m.phase == phaseWaiting {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case clarityAssessedMsg:
		m.errorMsg = ""
		m.state = msg.state
		if m.state.Stage == pipeline.StageClarified {
			m.phase = phaseSummary
			m.SetStatusMsg("Review the summary, then press Enter to continue")
			m.logInfo("Summary confirmed: %s", m.state.Summary.Topic)
			return m, nil
		}
		m.phase = phaseClarify
		m.answer.SetValue("")
		m.SetStatusMsg(fmt.Sprintf("Round %d · answer the questions, or ctrl+s to skip ahead", m.state.ClarityRounds))
		return m, m.answer.Focus()

	case intakeFailedMsg:
		var parseErr *pipeline.ParseError
		if errors.As(msg.err, &parseErr) && parseErr.Raw != "" {
			m.errorMsg = ""
			m.raw.SetContent(parseErr.Raw)
			m.raw.GotoTop()
			m.phase = phaseRawFailure
			m.SetStatusMsg("The response could not be parsed · Enter to go back and retry")
			m.logWarn("Unparseable reasoning response shown for inspection")
			return m, nil
		}
		m.errorMsg = msg.err.Error()
		return m.returnToInput()
	}

	var cmd tea.Cmd
	switch m.phase {
	case phaseIdea:
		m.idea, cmd = m.idea.Update(msg)
	case phaseClarify:
		m.answer, cmd = m.answer.Update(msg)
	case phaseRawFailure:
		m.raw, cmd = m.raw.Update(msg)
	}
	return m, cmd
}

// returnToInput puts the mode back on whichever input the failed call came
// from so the user can retry.
func (m *Mode) returnToInput() (modes.Mode, tea.Cmd) {
	if m.state.Stage == pipeline.StageClarifying {
		m.phase = phaseClarify
		m.SetStatusMsg("The collaborator call failed; try again")
		return m, m.answer.Focus()
	}
	m.phase = phaseIdea
	m.SetStatusMsg("The collaborator call failed; press ctrl+d to retry")
	return m, m.idea.Focus()
}

// View renders the intake mode
func (m *Mode) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#6BCB77")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1)

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555"))

	header := titleStyle.Render("◆ IDEA INTAKE")
	var body string

	switch m.phase {
	case phaseIdea:
		body = fmt.Sprintf("%s\n\n%s",
			m.idea.View(),
			hintStyle.Render("ctrl+d submit"))

	case phaseWaiting:
		body = fmt.Sprintf("%s Thinking...", m.spin.View())

	case phaseClarify:
		body = fmt.Sprintf("%s\n\n%s\n\n%s\n%s",
			m.renderReport(),
			m.answer.View(),
			hintStyle.Render("enter answer · ctrl+s skip and summarize"),
			m.renderRoundCounter())

	case phaseSummary:
		body = fmt.Sprintf("%s\n\n%s",
			m.renderSummary(),
			hintStyle.Render("enter continue to discovery"))

	case phaseRawFailure:
		notice := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1).
			Render("The collaborator's response could not be parsed. Raw output:")
		body = fmt.Sprintf("%s\n\n%s\n\n%s", notice, m.raw.View(),
			hintStyle.Render("enter go back and retry"))
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

func (m *Mode) renderReport() string {
	report := m.state.Report
	sectionTitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77")).
		Bold(true)
	ratingStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFD479"))

	var sections []string
	sections = append(sections, ratingStyle.Render(fmt.Sprintf("Clarity: %d/10", report.Rating)))
	if reflection := strings.TrimSpace(report.Reflection); reflection != "" {
		sections = append(sections, fmt.Sprintf("%s\n%s", sectionTitle.Render("How it reads so far"), reflection))
	}
	if len(report.MissingElements) > 0 {
		sections = append(sections, fmt.Sprintf("%s\n- %s",
			sectionTitle.Render("Still missing"),
			strings.Join(report.MissingElements, "\n- ")))
	}
	if advice := strings.TrimSpace(report.Advice); advice != "" {
		sections = append(sections, fmt.Sprintf("%s\n%s", sectionTitle.Render("Advice"), advice))
	}
	return strings.Join(sections, "\n\n")
}

func (m *Mode) renderRoundCounter() string {
	limit := pipeline.DefaultClarityRoundCap
	if ctx := m.Context(); ctx != nil && ctx.Config != nil {
		limit = ctx.Config.Project.Reasoning.MaxClarityRounds
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render(fmt.Sprintf("round %d of %d", m.state.ClarityRounds, limit))
}

func (m *Mode) renderSummary() string {
	summary := m.state.Summary
	sectionTitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77")).
		Bold(true)

	var b strings.Builder
	b.WriteString(sectionTitle.Render("Confirmed Summary"))
	b.WriteString("\n\n")
	writeField(&b, "Purpose", summary.Topic)
	writeField(&b, "Scope", summary.Scope)
	writeField(&b, "Platform", summary.Platform)
	writeField(&b, "Tech stack", strings.Join(summary.TechStack, ", "))
	writeField(&b, "Key features", strings.Join(summary.KeyFeatures, ", "))
	if len(summary.OpenQuestions) > 0 {
		writeField(&b, "Open questions", strings.Join(summary.OpenQuestions, "; "))
	}
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", label, value)
}

// Message types
type clarityAssessedMsg struct {
	state  pipeline.RunState
	result pipeline.Result
}

type intakeFailedMsg struct {
	err error
}

// submitIdea sends the typed idea through the pipeline
func (m *Mode) submitIdea() (modes.Mode, tea.Cmd) {
	text := strings.TrimSpace(m.idea.Value())
	if text == "" {
		m.errorMsg = "describe the idea before submitting"
		return m, nil
	}
	m.errorMsg = ""
	m.phase = phaseWaiting
	m.SetStatusMsg("Assessing clarity...")
	state := m.state
	call := func() tea.Msg {
		ctx := m.Context()
		next, result, err := ctx.Pipeline.SubmitIdea(context.Background(), state, text)
		if err != nil {
			return intakeFailedMsg{err: err}
		}
		return clarityAssessedMsg{state: next, result: result}
	}
	return m, tea.Batch(m.spin.Tick, call)
}

// submitAnswer feeds one clarification answer back in
func (m *Mode) submitAnswer() (modes.Mode, tea.Cmd) {
	text := strings.TrimSpace(m.answer.Value())
	if text == "" {
		m.errorMsg = "type an answer, or ctrl+s to skip"
		return m, nil
	}
	m.errorMsg = ""
	m.phase = phaseWaiting
	m.SetStatusMsg("Reassessing...")
	state := m.state
	call := func() tea.Msg {
		ctx := m.Context()
		next, result, err := ctx.Pipeline.AnswerClarification(context.Background(), state, text)
		if err != nil {
			return intakeFailedMsg{err: err}
		}
		return clarityAssessedMsg{state: next, result: result}
	}
	return m, tea.Batch(m.spin.Tick, call)
}

// skipClarification ends the question loop on the user's say-so
func (m *Mode) skipClarification() (modes.Mode, tea.Cmd) {
	m.errorMsg = ""
	m.phase = phaseWaiting
	m.SetStatusMsg("Summarizing what we have...")
	state := m.state
	call := func() tea.Msg {
		ctx := m.Context()
		next, result, err := ctx.Pipeline.SkipClarification(context.Background(), state)
		if err != nil {
			return intakeFailedMsg{err: err}
		}
		return clarityAssessedMsg{state: next, result: result}
	}
	return m, tea.Batch(m.spin.Tick, call)
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
