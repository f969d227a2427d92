// internal/modes/discovery/discovery.go
//
// Discovery mode runs stage two of the wizard: the derived search query is
// shown for editing, the search collaborator finds candidate repositories,
// and the results are listed with scraped metadata. An empty result is a
// decision point, not a failure: the user can edit the query or revise the
// summary and try again.

package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/groundwork/internal/modes"
	"github.com/kingrea/groundwork/internal/pipeline"
	"github.com/kingrea/groundwork/internal/plan"
)

// discoveryPhase tracks which sub-view is active
type discoveryPhase int

const (
	phaseQuery     discoveryPhase = iota // editable query input
	phaseSearching                       // search call in flight
	phaseResults                         // candidate list shown
	phaseEmpty                           // zero candidates, decision point
	phaseRevise                          // summary topic editor
)

// Mode handles the candidate discovery phase
type Mode struct {
	modes.BaseMode
	phase    discoveryPhase
	query    textinput.Model
	topic    textinput.Model
	spin     spinner.Model
	candList list.Model

	state    pipeline.RunState
	errorMsg string
	width    int
	height   int
}

// candidateItem wraps a candidate for the list display
type candidateItem struct {
	candidate plan.Candidate
}

func (i candidateItem) Title() string {
	return fmt.Sprintf("%d. %s", i.candidate.Rank, i.candidate.Title)
}

func (i candidateItem) Description() string {
	var parts []string
	if i.candidate.Metadata.Stars > 0 {
		parts = append(parts, fmt.Sprintf("★ %d", i.candidate.Metadata.Stars))
	}
	if len(i.candidate.Metadata.Languages) > 0 {
		parts = append(parts, i.candidate.Metadata.Languages[0])
	}
	if desc := strings.TrimSpace(i.candidate.Description); desc != "" {
		parts = append(parts, desc)
	}
	if len(parts) == 0 {
		return i.candidate.URL
	}
	return strings.Join(parts, " · ")
}

func (i candidateItem) FilterValue() string { return i.candidate.Title }

// New creates a new Discovery mode
func New() *Mode {
	query := textinput.New()
	query.Placeholder = "Search query..."
	query.CharLimit = 0

	topic := textinput.New()
	topic.Placeholder = "Revised project purpose..."
	topic.CharLimit = 0

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(2)
	delegate.SetSpacing(0)
	candList := list.New([]list.Item{}, delegate, 0, 0)
	candList.Title = "Candidate Repositories"
	candList.SetShowStatusBar(false)
	candList.SetFilteringEnabled(false)

	return &Mode{
		BaseMode: modes.NewBaseMode("Candidate Discovery", pipeline.StageDiscovered),
		query:    query,
		topic:    topic,
		spin:     spin,
		candList: candList,
	}
}

// Init initializes the discovery mode
func (m *Mode) Init(ctx *modes.ModeContext) tea.Cmd {
	m.SetContext(ctx)
	m.state = ctx.State
	m.query.SetValue(m.state.Query)
	m.phase = phaseQuery
	m.SetStatusMsg("Edit the derived query if you like, then press Enter to search")
	return m.query.Focus()
}

// Update handles messages for the discovery mode
func (m *Mode) Update(msg tea.Msg) (modes.Mode, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputWidth := msg.Width - 6
		if inputWidth < 30 {
			inputWidth = 30
		}
		m.query.Width = inputWidth
		m.topic.Width = inputWidth
		listHeight := msg.Height - 10
		if listHeight < 5 {
			listHeight = 5
		}
		m.candList.SetSize(inputWidth, listHeight)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		switch m.phase {
		case phaseQuery:
			if msg.String() == "enter" {
				return m.startSearch()
			}
		case phaseResults:
			switch msg.String() {
			case "enter":
				m.SetComplete(true)
				m.SetStatusMsg("Candidates confirmed")
				state := m.state
				return m, func() tea.Msg {
					return modes.ModeCompleteMsg{State: state}
				}
			case "e":
				m.phase = phaseQuery
				m.SetStatusMsg("Edit the query, then press Enter to search again")
				return m, m.query.Focus()
			}
		case phaseEmpty:
			switch msg.String() {
			case "e":
				m.phase = phaseQuery
				m.SetStatusMsg("Edit the query, then press Enter to search again")
				return m, m.query.Focus()
			case "r":
				m.phase = phaseRevise
				m.topic.SetValue(m.state.Summary.Topic)
				m.SetStatusMsg("Revise the project purpose, then press Enter")
				return m, m.topic.Focus()
			}
		case phaseRevise:
			switch msg.String() {
			case "enter":
				return m.reviseSummary()
			case "esc":
				m.phase = phaseEmpty
				return m, nil
			}
		}

	case spinner.TickMsg:
		if m.phase == phaseSearching {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case searchFinishedMsg:
		m.errorMsg = ""
		m.state = msg.state
		if msg.result.Status == pipeline.StatusNeedsInput {
			m.phase = phaseEmpty
			m.SetStatusMsg("No candidates found")
			m.logWarn("Discovery found nothing for %q", m.state.Query)
			return m, nil
		}
		items := make([]list.Item, len(m.state.Candidates))
		for i, candidate := range m.state.Candidates {
			items[i] = candidateItem{candidate: candidate}
		}
		m.candList.SetItems(items)
		m.phase = phaseResults
		m.SetStatusMsg(fmt.Sprintf("Found %d candidates · Enter to evaluate, e to edit the query", len(items)))
		m.logInfo("Discovered %d candidates", len(items))
		return m, nil

	case discoveryFailedMsg:
		m.errorMsg = msg.err.Error()
		m.phase = phaseQuery
		m.SetStatusMsg("The search failed; press Enter to retry")
		return m, m.query.Focus()
	}

	var cmd tea.Cmd
	switch m.phase {
	case phaseQuery:
		m.query, cmd = m.query.Update(msg)
	case phaseRevise:
		m.topic, cmd = m.topic.Update(msg)
	case phaseResults:
		m.candList, cmd = m.candList.Update(msg)
	}
	return m, cmd
}

// View renders the discovery mode
func (m *Mode) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00BFFF")).
		MarginBottom(1)

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1)

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555"))

	header := titleStyle.Render("◆ CANDIDATE DISCOVERY")
	var body string

	switch m.phase {
	case phaseQuery:
		body = fmt.Sprintf("Search query:\n\n%s\n\n%s",
			m.query.View(),
			hintStyle.Render("enter search"))

	case phaseSearching:
		body = fmt.Sprintf("%s Searching GitHub...", m.spin.View())

	case phaseResults:
		body = m.candList.View()

	case phaseEmpty:
		notice := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFD479")).
			Padding(0, 1).
			Render(fmt.Sprintf("No repositories matched %q", m.state.Query))
		body = fmt.Sprintf("%s\n\n%s", notice,
			hintStyle.Render("e edit the query · r revise the summary"))

	case phaseRevise:
		body = fmt.Sprintf("Project purpose:\n\n%s\n\n%s",
			m.topic.View(),
			hintStyle.Render("enter save · esc back"))
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

// Message types
type searchFinishedMsg struct {
	state  pipeline.RunState
	result pipeline.Result
}

type discoveryFailedMsg struct {
	err error
}

// startSearch runs the discovery call with the (possibly edited) query
func (m *Mode) startSearch() (modes.Mode, tea.Cmd) {
	query := strings.TrimSpace(m.query.Value())
	if query == "" {
		m.errorMsg = "the search query must not be empty"
		return m, nil
	}
	m.errorMsg = ""
	m.phase = phaseSearching
	m.SetStatusMsg("Searching...")
	state := m.state
	call := func() tea.Msg {
		ctx := m.Context()
		next, result, err := ctx.Pipeline.Discover(context.Background(), state, query)
		if err != nil {
			return discoveryFailedMsg{err: err}
		}
		return searchFinishedMsg{state: next, result: result}
	}
	return m, tea.Batch(m.spin.Tick, call)
}

// reviseSummary replaces the summary purpose and re-derives the query
func (m *Mode) reviseSummary() (modes.Mode, tea.Cmd) {
	topic := strings.TrimSpace(m.topic.Value())
	if topic == "" {
		m.errorMsg = "the purpose must not be empty"
		return m, nil
	}
	revised := m.state.Summary
	revised.Topic = topic
	next, _, err := m.Context().Pipeline.ReviseSummary(m.state, revised)
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}
	m.errorMsg = ""
	m.state = next
	m.query.SetValue(next.Query)
	m.phase = phaseQuery
	m.SetStatusMsg("Summary revised · press Enter to search with the new query")
	m.logInfo("Summary revised: %s", topic)
	return m, m.query.Focus()
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
