// internal/modes/evaluation/evaluation.go
//
// Evaluation mode runs stage three of the wizard: every candidate is scored
// against the summary in one reasoning call, the ranked results are listed
// with a detail panel, and the user confirms a selection (or accepts the
// recommendation with one key).

package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/groundwork/internal/modes"
	"github.com/kingrea/groundwork/internal/pipeline"
	"github.com/kingrea/groundwork/internal/plan"
)

// evaluationPhase tracks which sub-view is active
type evaluationPhase int

const (
	phaseScoring    evaluationPhase = iota // batch evaluation in flight
	phaseChoose                            // ranked list shown, selection pending
	phaseRawFailure                        // parse failure, raw payload shown
)

// Mode handles the evaluation and selection phase
type Mode struct {
	modes.BaseMode
	phase    evaluationPhase
	spin     spinner.Model
	evalList list.Model
	raw      viewport.Model

	state     pipeline.RunState
	errorMsg  string
	width     int
	height    int
	listWidth int
	showSide  bool
}

// evalItem pairs an evaluation with its candidate for the list display
type evalItem struct {
	eval        plan.Evaluation
	candidate   plan.Candidate
	recommended bool
}

func (i evalItem) Title() string {
	badge := fmt.Sprintf("[%d/10]", i.eval.Score)
	if i.recommended {
		badge += " ●"
	}
	return fmt.Sprintf("%s %s", badge, i.candidate.Title)
}

func (i evalItem) Description() string {
	if summary := strings.TrimSpace(i.eval.Summary); summary != "" {
		return summary
	}
	return i.candidate.URL
}

func (i evalItem) FilterValue() string { return i.candidate.Title }

// New creates a new Evaluation mode
func New() *Mode {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)
	evalList := list.New([]list.Item{}, delegate, 0, 0)
	evalList.Title = "Evaluated Candidates"
	evalList.SetShowStatusBar(false)
	evalList.SetFilteringEnabled(false)

	return &Mode{
		BaseMode: modes.NewBaseMode("Evaluation & Selection", pipeline.StageSelected),
		phase:    phaseScoring,
		spin:     spin,
		evalList: evalList,
		raw:      viewport.New(0, 0),
	}
}

// Init initializes the evaluation mode and starts the batch evaluation
func (m *Mode) Init(ctx *modes.ModeContext) tea.Cmd {
	m.SetContext(ctx)
	m.state = ctx.State
	m.SetStatusMsg("Scoring candidates against the summary...")
	state := m.state
	call := func() tea.Msg {
		next, _, err := ctx.Pipeline.EvaluateCandidates(context.Background(), state)
		if err != nil {
			return evaluationFailedMsg{err: err}
		}
		return evaluatedMsg{state: next}
	}
	return tea.Batch(m.spin.Tick, call)
}

// Update handles messages for the evaluation mode
func (m *Mode) Update(msg tea.Msg) (modes.Mode, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		availableWidth := msg.Width - 4
		if availableWidth < 20 {
			availableWidth = msg.Width
		}
		m.showSide = msg.Width >= 90
		if m.showSide {
			m.listWidth = int(float64(availableWidth) * 0.45)
			if m.listWidth < 36 {
				m.listWidth = 36
			}
		} else {
			m.listWidth = availableWidth
		}
		listHeight := msg.Height - 8
		if listHeight < 5 {
			listHeight = msg.Height - 2
		}
		m.evalList.SetSize(m.listWidth, listHeight)
		m.raw.Width = availableWidth
		m.raw.Height = listHeight
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		switch m.phase {
		case phaseChoose:
			switch msg.String() {
			case "enter":
				return m.selectCursor()
			case "a":
				return m.autoSelect()
			case "r":
				return m.retryEvaluation()
			}
		case phaseRawFailure:
			if msg.String() == "r" {
				return m.retryEvaluation()
			}
		}

	case spinner.TickMsg:
		if m.phase == phaseScoring {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case evaluatedMsg:
		m.errorMsg = ""
		m.state = msg.state
		m.evalList.SetItems(m.buildItems())
		m.phase = phaseChoose
		m.SetStatusMsg("Enter select · a accept recommendation · r re-evaluate")
		m.logInfo("Evaluated %d candidates", len(m.state.Evaluations))
		return m, nil

	case evaluationFailedMsg:
		var parseErr *pipeline.ParseError
		if errors.As(msg.err, &parseErr) && parseErr.Raw != "" {
			m.errorMsg = ""
			m.raw.SetContent(parseErr.Raw)
			m.raw.GotoTop()
			m.phase = phaseRawFailure
			m.SetStatusMsg("The response could not be parsed · r to re-evaluate")
			m.logWarn("Unparseable evaluation response shown for inspection")
			return m, nil
		}
		m.errorMsg = msg.err.Error()
		m.phase = phaseChoose
		m.SetStatusMsg("Evaluation failed · r to retry")
		m.logWarn("Evaluation failed: %v", msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.phase {
	case phaseChoose:
		m.evalList, cmd = m.evalList.Update(msg)
	case phaseRawFailure:
		m.raw, cmd = m.raw.Update(msg)
	}
	return m, cmd
}

// View renders the evaluation mode
func (m *Mode) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFD479")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1)

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555"))

	header := titleStyle.Render("◆ EVALUATION & SELECTION")
	var body string

	switch m.phase {
	case phaseScoring:
		body = fmt.Sprintf("%s Scoring candidates...", m.spin.View())
	case phaseRawFailure:
		notice := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1).
			Render("The collaborator's response could not be parsed. Raw output:")
		body = fmt.Sprintf("%s\n\n%s\n\n%s", notice, m.raw.View(),
			hintStyle.Render("r re-evaluate"))
	default:
		body = m.renderContent()
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

func (m *Mode) renderContent() string {
	listView := m.evalList.View()
	detail := m.renderCursorDetail()
	if detail == "" {
		return listView
	}
	if m.showSide {
		return lipgloss.JoinHorizontal(lipgloss.Top, listView, detail)
	}
	return fmt.Sprintf("%s\n\n%s", listView, detail)
}

func (m *Mode) renderCursorDetail() string {
	item, ok := m.evalList.SelectedItem().(evalItem)
	if !ok {
		return ""
	}
	detailWidth := m.width - m.listWidth - 6
	if !m.showSide {
		detailWidth = m.width - 4
	}
	if detailWidth < 36 {
		detailWidth = 36
	}
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFD479"))
	sectionTitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77")).
		Bold(true)
	bodyStyle := lipgloss.NewStyle().
		Width(detailWidth).
		Padding(0, 1)
	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#555555")).
		Padding(1, 2).
		Width(detailWidth + 4)

	var sections []string
	sections = append(sections, titleStyle.Render(item.candidate.Title))
	sections = append(sections, item.candidate.URL)
	if len(item.eval.Pros) > 0 {
		sections = append(sections, fmt.Sprintf("%s\n- %s",
			sectionTitle.Render("Pros"), strings.Join(item.eval.Pros, "\n- ")))
	}
	if len(item.eval.Cons) > 0 {
		sections = append(sections, fmt.Sprintf("%s\n- %s",
			sectionTitle.Render("Cons"), strings.Join(item.eval.Cons, "\n- ")))
	}
	if len(item.eval.TechMatches) > 0 {
		sections = append(sections, fmt.Sprintf("%s\n%s",
			sectionTitle.Render("Tech matches"), strings.Join(item.eval.TechMatches, ", ")))
	}
	if len(item.eval.FeatureMatches) > 0 {
		sections = append(sections, fmt.Sprintf("%s\n%s",
			sectionTitle.Render("Feature matches"), strings.Join(item.eval.FeatureMatches, ", ")))
	}
	if effort := strings.TrimSpace(item.eval.Effort); effort != "" {
		sections = append(sections, fmt.Sprintf("%s\n%s", sectionTitle.Render("Effort"), effort))
	}
	body := bodyStyle.Render(strings.Join(sections, "\n\n"))
	return borderStyle.Render(body)
}

// buildItems pairs ranked evaluations with their candidates
func (m *Mode) buildItems() []list.Item {
	byRank := make(map[int]plan.Candidate, len(m.state.Candidates))
	for _, candidate := range m.state.Candidates {
		byRank[candidate.Rank] = candidate
	}
	ranked := plan.Ranked(m.state.Evaluations)
	items := make([]list.Item, 0, len(ranked))
	for _, eval := range ranked {
		items = append(items, evalItem{
			eval:        eval,
			candidate:   byRank[eval.Candidate],
			recommended: eval.Candidate == m.state.Recommended.Candidate,
		})
	}
	return items
}

// Message types
type evaluatedMsg struct {
	state pipeline.RunState
}

type evaluationFailedMsg struct {
	err error
}

// selectCursor confirms the candidate under the cursor
func (m *Mode) selectCursor() (modes.Mode, tea.Cmd) {
	item, ok := m.evalList.SelectedItem().(evalItem)
	if !ok {
		return m, nil
	}
	next, _, err := m.Context().Pipeline.Select(m.state, item.eval.Candidate, "")
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}
	return m.finishSelection(next)
}

// autoSelect accepts the evaluator's recommendation
func (m *Mode) autoSelect() (modes.Mode, tea.Cmd) {
	next, _, err := m.Context().Pipeline.AutoSelect(m.state)
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}
	return m.finishSelection(next)
}

// retryEvaluation reruns the batch evaluation after a failure
func (m *Mode) retryEvaluation() (modes.Mode, tea.Cmd) {
	if m.state.Stage != pipeline.StageDiscovered {
		restarted, _, err := m.Context().Pipeline.RestartSelection(m.state)
		if err != nil {
			m.errorMsg = err.Error()
			return m, nil
		}
		m.state = restarted
	}
	m.errorMsg = ""
	m.phase = phaseScoring
	m.SetStatusMsg("Scoring candidates again...")
	state := m.state
	call := func() tea.Msg {
		next, _, err := m.Context().Pipeline.EvaluateCandidates(context.Background(), state)
		if err != nil {
			return evaluationFailedMsg{err: err}
		}
		return evaluatedMsg{state: next}
	}
	return m, tea.Batch(m.spin.Tick, call)
}

func (m *Mode) finishSelection(next pipeline.RunState) (modes.Mode, tea.Cmd) {
	m.errorMsg = ""
	m.state = next
	m.SetComplete(true)
	chosen, _ := next.SelectedCandidate()
	m.SetStatusMsg(fmt.Sprintf("Selected %s", chosen.Title))
	m.logInfo("Selected candidate #%d: %s", next.Selection.Candidate, chosen.Title)
	return m, func() tea.Msg {
		return modes.ModeCompleteMsg{State: next}
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
